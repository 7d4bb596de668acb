package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCartAdd(t *testing.T) {
	c := Cart{}
	c.Add("Latte", 2)
	c.Add("Latte", 1)
	assert.Equal(t, 3, c["Latte"])

	c.Add("Mocha", 0)
	c.Add("Mocha", -1)
	assert.NotContains(t, c, "Mocha")
}

func TestCartAdjust(t *testing.T) {
	c := Cart{"Latte": 1}

	c.Adjust("Latte", 1)
	assert.Equal(t, 2, c["Latte"])

	c.Adjust("Latte", -1)
	assert.Equal(t, 1, c["Latte"])

	// Decrementing at one removes the item.
	c.Adjust("Latte", -1)
	assert.NotContains(t, c, "Latte")

	// Adjusting an absent item never creates it.
	c.Adjust("Mocha", 1)
	assert.NotContains(t, c, "Mocha")
}

func TestCartClone(t *testing.T) {
	c := Cart{"Latte": 2}
	clone := c.Clone()
	clone.Add("Latte", 1)
	assert.Equal(t, 2, c["Latte"])
	assert.Equal(t, 3, clone["Latte"])
}
