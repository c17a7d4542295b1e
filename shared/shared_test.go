package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBankHalves(t *testing.T) {
	msb, lsb := SplitBank(0x7001)
	assert.Equal(t, uint8(0x70), msb)
	assert.Equal(t, uint8(0x01), lsb)
	assert.Equal(t, uint16(0x7001), JoinBank(msb, lsb))

	assert.True(t, ValidBank(0x7f7f))
	assert.False(t, ValidBank(0x8000))
	assert.False(t, ValidBank(0x0080))
}
