package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWizardHappyPath(t *testing.T) {
	wz := newWizard()
	assert.Equal(t, stepName, wz.step)

	steps := []struct {
		in       wizardInput
		wantStep wizardStep
	}{
		{wizardInput{Text: "Сомса с мясом"}, stepDescription},
		{wizardInput{Text: "Тандырная сомса"}, stepPrice},
		{wizardInput{Text: "15000"}, stepCategory},
		{wizardInput{Text: "somsa"}, stepImage},
		{wizardInput{PhotoID: "photo123"}, stepPopular},
	}
	for _, st := range steps {
		reply, done := wz.Next(st.in)
		assert.False(t, done)
		assert.NotEmpty(t, reply)
		assert.Equal(t, st.wantStep, wz.step)
	}

	_, done := wz.Next(wizardInput{Text: "да"})
	require.True(t, done)

	assert.Equal(t, "Сомса с мясом", wz.input.Name)
	assert.Equal(t, "Тандырная сомса", wz.input.Description)
	assert.Equal(t, 15000.0, wz.input.Price)
	assert.Equal(t, "somsa", wz.input.Category)
	assert.True(t, wz.input.Popular)
	assert.Equal(t, "photo123", wz.photoID)
}

func TestWizardInvalidPriceStaysOnStep(t *testing.T) {
	wz := newWizard()
	wz.Next(wizardInput{Text: "Сомса"})
	wz.Next(wizardInput{Text: "описание"})
	require.Equal(t, stepPrice, wz.step)

	for _, bad := range []string{"", "abc", "0", "-100"} {
		_, done := wz.Next(wizardInput{Text: bad})
		assert.False(t, done)
		assert.Equal(t, stepPrice, wz.step, "input %q must not advance", bad)
	}

	_, done := wz.Next(wizardInput{Text: "12 000"})
	assert.False(t, done)
	assert.Equal(t, stepCategory, wz.step)
	assert.Equal(t, 12000.0, wz.input.Price)
}

func TestWizardSkipImage(t *testing.T) {
	wz := newWizard()
	wz.Next(wizardInput{Text: "Сомса"})
	wz.Next(wizardInput{Text: "описание"})
	wz.Next(wizardInput{Text: "15000"})
	wz.Next(wizardInput{Text: "somsa"})
	require.Equal(t, stepImage, wz.step)

	// Random text neither advances nor counts as a skip.
	_, done := wz.Next(wizardInput{Text: "нет фото"})
	assert.False(t, done)
	assert.Equal(t, stepImage, wz.step)

	_, done = wz.Next(wizardInput{Text: "-"})
	assert.False(t, done)
	assert.Equal(t, stepPopular, wz.step)
	assert.Empty(t, wz.photoID)
}

func TestWizardPopularReprompts(t *testing.T) {
	wz := newWizard()
	wz.Next(wizardInput{Text: "Сомса"})
	wz.Next(wizardInput{Text: "описание"})
	wz.Next(wizardInput{Text: "15000"})
	wz.Next(wizardInput{Text: "somsa"})
	wz.Next(wizardInput{Text: "-"})
	require.Equal(t, stepPopular, wz.step)

	_, done := wz.Next(wizardInput{Text: "возможно"})
	assert.False(t, done)
	assert.Equal(t, stepPopular, wz.step)

	_, done = wz.Next(wizardInput{Text: "НЕТ"})
	require.True(t, done)
	assert.False(t, wz.input.Popular)
}
