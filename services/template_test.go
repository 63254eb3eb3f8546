package services

import "testing"

func TestParseNewsletterOutput(t *testing.T) {
	newsletter := "Lorem\nipsum"

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "newsletter tag",
			raw:  "Here is the newsletter : \n<newsletter>\n" + newsletter + "\n</newsletter>\nHope it fits your needs !",
			want: newsletter,
		},
		{
			name: "newsletter_template as tag",
			raw:  "Here is the newsletter : \n<newsletter_template>\n" + newsletter + "\n</newsletter_template>\nHope it fits your needs !",
			want: newsletter,
		},
		{
			name: "no tags falls back to raw reply",
			raw:  "  " + newsletter + "\n",
			want: newsletter,
		},
		{
			name: "empty reply",
			raw:  "",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseNewsletterOutput(tt.raw); got != tt.want {
				t.Errorf("ParseNewsletterOutput() = %q, want %q", got, tt.want)
			}
		})
	}
}
