package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestApplyPlatformDefaults(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		vars     map[string]string
		wantAddr string
		wantDB   string
		wantRed  string
	}{
		{
			name:     "no platform vars",
			cfg:      Config{Addr: defaultAddr},
			wantAddr: defaultAddr,
		},
		{
			name: "platform vars fill gaps",
			cfg:  Config{Addr: defaultAddr},
			vars: map[string]string{
				"DATABASE_URL": "postgres://db/troli",
				"REDIS_URL":    "redis://cache:6379/0",
				"PORT":         "9000",
			},
			wantAddr: "0.0.0.0:9000",
			wantDB:   "postgres://db/troli",
			wantRed:  "redis://cache:6379/0",
		},
		{
			name: "explicit values win",
			cfg: Config{
				Addr:        "127.0.0.1:7000",
				DatabaseURL: "postgres://explicit",
				Redis:       RedisConfig{Addr: "localhost:6379"},
			},
			vars: map[string]string{
				"DATABASE_URL": "postgres://platform",
				"REDIS_URL":    "redis://platform",
				"PORT":         "9000",
			},
			wantAddr: "127.0.0.1:7000",
			wantDB:   "postgres://explicit",
			wantRed:  "localhost:6379",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			cfg.applyPlatformDefaults(env(tt.vars))
			assert.Equal(t, tt.wantAddr, cfg.Addr)
			assert.Equal(t, tt.wantDB, cfg.DatabaseURL)
			assert.Equal(t, tt.wantRed, cfg.Redis.Addr)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	valid := Config{
		Session:   SessionConfig{TTL: 30 * time.Minute, SweepInterval: time.Minute},
		RateLimit: RateLimitConfig{RPS: 20, Burst: 40},
	}
	require.NoError(t, valid.validate())

	noTTL := valid
	noTTL.Session.TTL = 0
	assert.ErrorContains(t, noTTL.validate(), "session ttl")

	noSweep := valid
	noSweep.Session.SweepInterval = 0
	assert.ErrorContains(t, noSweep.validate(), "sweep interval")

	noRate := valid
	noRate.RateLimit.Burst = 0
	assert.ErrorContains(t, noRate.validate(), "rate limit")
}
