package arbiter

import (
	"os"
	"testing"

	"github.com/gethiox/chiralscroll/internal/pkg/logger"
)

func TestMain(m *testing.M) {
	go logger.Drain()
	os.Exit(m.Run())
}
