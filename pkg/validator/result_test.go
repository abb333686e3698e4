package validator

import "testing"

func TestCheckResult_Diagnostic(t *testing.T) {
	tests := []struct {
		name  string
		diags []string
		want  string
	}{
		{name: "none", want: ""},
		{name: "single", diags: []string{"parameter 'x' is absent in line [/p]"}, want: "parameter 'x' is absent in line [/p]"},
		{
			name:  "longest wins",
			diags: []string{"short", "parameter 'x' is present in line [/p?x=1] with value '1' but expected '2'", "medium entry"},
			want:  "parameter 'x' is present in line [/p?x=1] with value '1' but expected '2'",
		},
		{name: "tie goes to first", diags: []string{"aaa", "bbb"}, want: "aaa"},
		{name: "empty entries ignored", diags: []string{"", "x"}, want: "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &CheckResult{Diagnostics: tt.diags}
			if got := c.Diagnostic(); got != tt.want {
				t.Errorf("Diagnostic() = %q, want %q", got, tt.want)
			}
		})
	}
}
