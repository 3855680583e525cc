package atlas

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/atlas/internal/core/doctor"
)

func resultNames(results []doctor.Result) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.Name)
	}
	return out
}

func TestDoctorService_Groups(t *testing.T) {
	tests := []struct {
		name string
		only []string
		want []string
	}{
		{name: "all", want: []string{doctor.ConfigName, doctor.VaultName, doctor.DataName, doctor.ToolsName}},
		{name: "vault only", only: []string{"vault"}, want: []string{doctor.VaultName}},
		{name: "tools and config", only: []string{"tools", "config"}, want: []string{doctor.ConfigName, doctor.ToolsName}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewDoctorService(testConfig(t))
			results := svc.RunChecks(context.Background(), DoctorOptions{Only: tt.only})
			assert.Equal(t, tt.want, resultNames(results))
		})
	}
}

func TestDoctorService_Autofix(t *testing.T) {
	cfg := testConfig(t)
	svc := NewDoctorService(cfg)

	before := svc.RunChecks(context.Background(), DoctorOptions{Only: []string{"data"}})
	require.Len(t, before, 1)
	assert.Positive(t, doctor.CountFixable(before))

	after := svc.RunChecks(context.Background(), DoctorOptions{Only: []string{"data"}, Autofix: true})
	require.Len(t, after, 1)
	assert.Zero(t, doctor.CountFixable(after))
	assert.DirExists(t, cfg.LogsDir())

	skipped := NewDoctorService(testConfig(t))
	_ = skipped.RunChecks(context.Background(), DoctorOptions{Only: []string{"vault"}, Autofix: true})
	assert.NoDirExists(t, skipped.config.LogsDir(), "autofix only touches the data group when it runs")
}
