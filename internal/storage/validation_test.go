package storage

import "testing"

func TestValidateContentType(t *testing.T) {
	svc := &MinIOService{maxFileSize: 1 << 20}

	allowed := []string{"image/jpeg", "IMAGE/PNG", "image/webp; charset=binary", "application/pdf", "audio/mpeg"}
	for _, ct := range allowed {
		if err := svc.ValidateContentType(ct); err != nil {
			t.Errorf("expected %q to be allowed: %v", ct, err)
		}
	}

	denied := []string{"text/html", "application/x-sh", "image/svg+xml", ""}
	for _, ct := range denied {
		if err := svc.ValidateContentType(ct); err == nil {
			t.Errorf("expected %q to be rejected", ct)
		}
	}
}

func TestValidateFileSize(t *testing.T) {
	svc := &MinIOService{maxFileSize: 100}

	if err := svc.ValidateFileSize(0); err == nil {
		t.Error("zero size must be rejected")
	}
	if err := svc.ValidateFileSize(101); err == nil {
		t.Error("oversize must be rejected")
	}
	if err := svc.ValidateFileSize(100); err != nil {
		t.Errorf("boundary size must be accepted: %v", err)
	}
}

func TestUniqueKeyKeepsExtensionAndFolder(t *testing.T) {
	key := uniqueKey("org1/prop2", "facade.jpg")
	if key == "org1/prop2/facade.jpg" {
		t.Fatal("key must be uniquified")
	}
	if got := key[:len("org1/prop2/facade_")]; got != "org1/prop2/facade_" {
		t.Fatalf("unexpected key prefix %q", key)
	}
	if key[len(key)-4:] != ".jpg" {
		t.Fatalf("extension not preserved in %q", key)
	}
}
