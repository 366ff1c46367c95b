package adaptive

import "testing"

func TestDefaultConfigCheck(t *testing.T) {
	if err := DefaultAdaptiveConfig().Check(); err != nil {
		t.Fatalf("default config must be consistent: %v", err)
	}
}

func TestConfigCheck_RejectsBrokenTables(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(c *AdaptiveConfig)
	}{
		{"missing band", func(c *AdaptiveConfig) {
			delete(c.Thresholds, BandGood)
		}},
		{"narrow guard gap", func(c *AdaptiveConfig) {
			th := c.Thresholds[BandGood]
			th.ExitDown = 70
			c.Thresholds[BandGood] = th
		}},
		{"overlapping entries", func(c *AdaptiveConfig) {
			th := c.Thresholds[BandStruggling]
			th.EntryLow = 30
			c.Thresholds[BandStruggling] = th
		}},
		{"guard inside entry range", func(c *AdaptiveConfig) {
			th := c.Thresholds[BandNormal]
			th.ExitDown = 50
			c.Thresholds[BandNormal] = th
		}},
		{"ascent inside entry range", func(c *AdaptiveConfig) {
			th := c.Thresholds[BandNormal]
			th.ExitUp = 69
			c.Thresholds[BandNormal] = th
		}},
		{"top band short of 100", func(c *AdaptiveConfig) {
			th := c.Thresholds[BandExcellent]
			th.EntryHigh = 95
			c.Thresholds[BandExcellent] = th
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			config := DefaultAdaptiveConfig()
			tc.mutate(config)
			if err := config.Check(); err == nil {
				t.Error("expected the broken table to be rejected")
			}
		})
	}
}
