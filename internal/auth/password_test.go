package auth

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	password := "SecurePass123!"

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	if hash == password {
		t.Error("hash must never equal the plaintext password")
	}

	if !CheckPassword(password, hash) {
		t.Error("CheckPassword() should accept the correct password")
	}

	if CheckPassword("WrongPass123!", hash) {
		t.Error("CheckPassword() should reject an incorrect password")
	}

	// hashing the same password twice must produce different hashes (bcrypt salts)
	hash2, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == hash2 {
		t.Error("two hashes of the same password should differ")
	}
}

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{name: "valid password", password: "SecurePass123!", wantErr: false},
		{name: "valid with bracket special", password: "Abcdef1[", wantErr: false},
		{name: "too short", password: "Ab1!", wantErr: true},
		{name: "no uppercase", password: "securepass123!", wantErr: true},
		{name: "no lowercase", password: "SECUREPASS123!", wantErr: true},
		{name: "no digit", password: "SecurePass!", wantErr: true},
		{name: "no special character", password: "SecurePass123", wantErr: true},
		{name: "empty", password: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePasswordStrength(tt.password)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePasswordStrength(%q) error = %v, wantErr %v", tt.password, err, tt.wantErr)
			}
		})
	}
}
