package tmpl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name    string
		tmpl    string
		data    any
		want    string
		wantErr bool
	}{
		{
			name: "simple substitution",
			tmpl: "File: {{ .Filename }}",
			data: map[string]string{"Filename": "memo.pdf"},
			want: "File: memo.pdf",
		},
		{
			name: "struct data",
			tmpl: "{{ .Filename }} ({{ .Extension }})",
			data: struct {
				Filename  string
				Extension string
			}{Filename: "memo.pdf", Extension: ".pdf"},
			want: "memo.pdf (.pdf)",
		},
		{
			name: "no variables",
			tmpl: "static string",
			data: nil,
			want: "static string",
		},
		{
			name:    "missing key errors",
			tmpl:    "{{ .Missing }}",
			data:    map[string]string{"Name": "test"},
			wantErr: true,
		},
		{
			name:    "invalid template syntax",
			tmpl:    "{{ .Name }",
			data:    map[string]string{"Name": "test"},
			wantErr: true,
		},
		{
			name: "empty value is valid",
			tmpl: "prefix{{ .Name }}suffix",
			data: map[string]string{"Name": ""},
			want: "prefixsuffix",
		},
		{
			name: "join",
			tmpl: `{{ join .Domains ", " }}`,
			data: map[string][]string{"Domains": {"BOCC", "Personal"}},
			want: "BOCC, Personal",
		},
		{
			name: "bullets",
			tmpl: `{{ bullets .Items }}`,
			data: map[string][]string{"Items": {"memo", "policy"}},
			want: "- memo\n- policy",
		},
		{
			name: "truncate cuts runes",
			tmpl: `{{ truncate 3 "…" .Content }}`,
			data: map[string]string{"Content": "héllo"},
			want: "hél…",
		},
		{
			name: "truncate leaves short input",
			tmpl: `{{ truncate 10 "…" .Content }}`,
			data: map[string]string{"Content": "short"},
			want: "short",
		},
		{
			name: "lower and trim",
			tmpl: `{{ .Ext | trim | lower }}`,
			data: map[string]string{"Ext": " .PDF "},
			want: ".pdf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(tt.tmpl, tt.data)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
