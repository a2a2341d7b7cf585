package viewer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	_ Launcher = Desktop{}
	_ Launcher = Nop{}
)

func TestNop_Launch(t *testing.T) {
	assert.NoError(t, Nop{}.Launch("/nonexistent/WWMAVASQL01DatabaseTableRowCount.csv"))
}
