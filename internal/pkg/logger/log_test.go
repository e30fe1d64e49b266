package logger

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestGetLogger(t *testing.T) {
	log := GetLogger()
	log.Info("hello", zap.String("device_name", "touchpad"), Warning)

	data := <-Messages

	var entry map[string]interface{}
	err := json.Unmarshal(data, &entry)
	assert.Nil(t, err)
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "touchpad", entry["device_name"])
	assert.Equal(t, float64(WarningLvl), entry["level"])
	assert.NotContains(t, string(data), "\n")
}
