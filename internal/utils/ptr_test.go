package utils

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestOptionalHelpers(t *testing.T) {
	id := uuid.New()

	assert.Equal(t, 3, *Ptr(3))
	assert.Equal(t, 0, OrZero[int](nil))
	assert.Equal(t, 7, OrZero(Ptr(7)))
	assert.Equal(t, uuid.Nil, OrZero[uuid.UUID](nil))

	assert.True(t, Is(&id, id))
	assert.False(t, Is(nil, id))
	assert.False(t, Is(Ptr(uuid.New()), id))
}
