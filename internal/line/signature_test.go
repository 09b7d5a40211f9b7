package line

import "testing"

func TestValidateSignatureAcceptsOwnSignature(t *testing.T) {
	secret := "channel-secret"
	bodies := [][]byte{
		[]byte(`{"destination":"U1","events":[]}`),
		[]byte(``),
		[]byte(`{"events":[{"type":"message"}]}`),
	}

	for _, body := range bodies {
		sig := SignBody(secret, body)
		if !ValidateSignature(secret, sig, body) {
			t.Errorf("valid signature rejected for body %q", body)
		}
	}
}

func TestValidateSignatureRejectsMutatedBody(t *testing.T) {
	secret := "channel-secret"
	body := []byte(`{"destination":"U1","events":[]}`)
	sig := SignBody(secret, body)

	for i := range body {
		mutated := make([]byte, len(body))
		copy(mutated, body)
		mutated[i] ^= 0x01
		if ValidateSignature(secret, sig, mutated) {
			t.Fatalf("signature accepted after mutating body byte %d", i)
		}
	}
}

func TestValidateSignatureRejectsMutatedSignature(t *testing.T) {
	secret := "channel-secret"
	body := []byte(`{"destination":"U1","events":[]}`)
	sig := SignBody(secret, body)

	for i := range sig {
		mutated := []byte(sig)
		mutated[i] ^= 0x01
		if ValidateSignature(secret, string(mutated), body) {
			t.Fatalf("mutated signature accepted at byte %d", i)
		}
	}
}

func TestValidateSignatureRejectsWrongSecret(t *testing.T) {
	body := []byte(`{"events":[]}`)
	sig := SignBody("secret-a", body)
	if ValidateSignature("secret-b", sig, body) {
		t.Fatal("signature accepted under a different secret")
	}
}

func TestValidateSignatureFailsClosedOnGarbage(t *testing.T) {
	body := []byte(`{"events":[]}`)
	cases := []string{"", "not-base64!!!", "YWJj"}
	for _, sig := range cases {
		if ValidateSignature("secret", sig, body) {
			t.Errorf("garbage signature %q accepted", sig)
		}
	}
}
