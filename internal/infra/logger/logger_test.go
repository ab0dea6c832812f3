package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/Spok95/kitchen-quotes/internal/infra/logger"
)

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWriter(&buf, "prod")
	log.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug must be off in prod: %s", buf.String())
	}

	log = logger.NewWriter(&buf, "dev")
	log.Debug("matrix built", "quotation_id", 7)
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("not json: %v", err)
	}
	if rec["msg"] != "matrix built" || rec["service"] != "kitchen-quotes" || rec["quotation_id"] != float64(7) {
		t.Fatalf("record = %v", rec)
	}
}
