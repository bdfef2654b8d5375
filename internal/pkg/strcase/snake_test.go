package strcase

import "testing"

func TestToLowerSnake(t *testing.T) {
	tests := map[string]string{
		"":                "",
		"Identifier":      "identifier",
		"PasswordConfirm": "password_confirm",
		"UserID":          "user_id",
		"HTTPServer":      "http_server",
		"OTPCode":         "otp_code",
		"Phone2Number":    "phone2_number",
	}

	for in, want := range tests {
		if got := ToLowerSnake(in); got != want {
			t.Errorf("ToLowerSnake(%q) = %q, want %q", in, got, want)
		}
	}
}
