package shared

import (
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "test-secret")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("MONGO_DB_NAME", "")
	t.Setenv("GRADE_PASSING_THRESHOLD", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	config, err := LoadConfig("api")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if !config.IsDevelopment() || config.IsProduction() {
		t.Errorf("Expected development mode, got environment %q", config.Environment)
	}
	if config.MongoDB.Database != "AcadPulse" {
		t.Errorf("Expected default database name, got %q", config.MongoDB.Database)
	}
	if config.Grading.PassingThreshold != 35 {
		t.Errorf("Expected default passing threshold 35, got %v", config.Grading.PassingThreshold)
	}
	if len(config.CORS.AllowedOrigins) == 0 {
		t.Error("Expected dev CORS origins to default")
	}
}

func TestLoadConfigProductionRequiresCORSOrigins(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	if _, err := LoadConfig("api"); err == nil {
		t.Fatal("Production config without explicit CORS origins must fail")
	}

	t.Setenv("CORS_ALLOWED_ORIGINS", "https://dashboard.example.edu")
	config, err := LoadConfig("api")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if !config.IsProduction() {
		t.Errorf("Expected production mode, got %q", config.Environment)
	}
	if len(config.CORS.AllowedOrigins) != 1 || config.CORS.AllowedOrigins[0] != "https://dashboard.example.edu" {
		t.Errorf("Expected explicit origin, got %v", config.CORS.AllowedOrigins)
	}
}

func TestLoadConfigRequiredVars(t *testing.T) {
	t.Setenv("MONGO_URI", "")
	t.Setenv("JWT_SECRET", "test-secret")
	if _, err := LoadConfig("api"); err == nil {
		t.Error("Missing MONGO_URI must fail")
	}

	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "")
	if _, err := LoadConfig("api"); err == nil {
		t.Error("Missing JWT_SECRET must fail")
	}
}

func TestGradeThresholdOverride(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("GRADE_PASSING_THRESHOLD", "50")

	config, err := LoadConfig("api")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.Grading.PassingThreshold != 50 {
		t.Errorf("Expected threshold 50, got %v", config.Grading.PassingThreshold)
	}
}
