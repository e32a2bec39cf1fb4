package phone

import "testing"

func TestFormat(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"841234567", "+258841234567"},
		{"84 123 4567", "+258841234567"},
		{"258841234567", "+258841234567"},
		{"+258 84 123 4567", "+258841234567"},
		{"+27821234567", "+27821234567"},
		{"21123456", "+25821123456"},
		{"(84) 123-4567", "+258841234567"},
	}

	for _, tt := range tests {
		if got := Format(tt.in); got != tt.want {
			t.Errorf("Format(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWhatsAppLink(t *testing.T) {
	got := WhatsAppLink("84 123 4567", "Ola Ana, venha as 7h30")
	want := "https://wa.me/258841234567?text=Ola+Ana%2C+venha+as+7h30"
	if got != want {
		t.Errorf("WhatsAppLink = %q, want %q", got, want)
	}

	if got := WhatsAppLink("841234567", ""); got != "https://wa.me/258841234567" {
		t.Errorf("WhatsAppLink without text = %q", got)
	}
}
