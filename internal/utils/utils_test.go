package utils

import "testing"

func TestValidateEmail(t *testing.T) {
	valid := []string{
		"rasdfs@gmail.com",
		"rasdfs@piosdf.com",
		"asdfj.jh@pio.sdf.com",
	}
	invalid := []string{
		"asdjfkjsdhf",
		"@asdfjaskh",
		"asdfasdf@",
		"a b@c.com",
	}

	for _, v := range valid {
		if !ValidateEmail(v) {
			t.Errorf("Email should be valid: %s", v)
		}
	}

	for _, v := range invalid {
		if ValidateEmail(v) {
			t.Errorf("Email should be invalid: %s", v)
		}
	}
}

func TestValidateURL(t *testing.T) {
	valid := []string{
		"https://example.com/report.pdf",
		"http://example.com",
	}
	invalid := []string{
		"ftp://example.com",
		"javascript:alert(1)",
		"https://",
		"not a url",
	}

	for _, v := range valid {
		if !ValidateURL(v) {
			t.Errorf("URL should be valid: %s", v)
		}
	}

	for _, v := range invalid {
		if ValidateURL(v) {
			t.Errorf("URL should be invalid: %s", v)
		}
	}
}

func TestGenToken(t *testing.T) {
	a := GenToken(32)
	b := GenToken(32)
	if a == b {
		t.Error("tokens should not repeat")
	}
	if len(a) < 32 {
		t.Errorf("token too short: %s", a)
	}
}
