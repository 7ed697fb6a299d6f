package telegram

import (
	"strconv"
	"strings"

	"github.com/BekhruzCo/soma-selecto/internal/usecase"
)

// Мастер добавления товара: линейная последовательность шагов
// name → description → price → category → image → popular.
// Некорректный ввод возвращает тот же шаг с повторным вопросом,
// состояние при этом не продвигается.

type wizardStep int

const (
	stepName wizardStep = iota
	stepDescription
	stepPrice
	stepCategory
	stepImage
	stepPopular
)

const skipImageInput = "-"

// wizardInput — одно сообщение оператора: текст и/или фото.
type wizardInput struct {
	Text    string
	PhotoID string
}

// wizard накапливает поля будущего товара по мере диалога.
type wizard struct {
	step    wizardStep
	input   usecase.ProductInput
	photoID string
}

func newWizard() *wizard {
	return &wizard{step: stepName}
}

// Prompt — вопрос текущего шага.
func (wz *wizard) Prompt() string {
	switch wz.step {
	case stepName:
		return "Введите название товара:"
	case stepDescription:
		return "Введите описание товара:"
	case stepPrice:
		return "Введите цену в сумах (число больше 0):"
	case stepCategory:
		return "Введите категорию (например: somsa, drinks):"
	case stepImage:
		return "Пришлите фото товара или «-», чтобы пропустить:"
	case stepPopular:
		return "Сделать товар популярным? (да/нет)"
	}
	return ""
}

// Next обрабатывает ввод и возвращает следующий вопрос. done=true
// означает, что все поля собраны и товар можно отправлять в каталог.
func (wz *wizard) Next(in wizardInput) (reply string, done bool) {
	text := strings.TrimSpace(in.Text)
	switch wz.step {
	case stepName:
		if text == "" {
			return "Название не может быть пустым.\n" + wz.Prompt(), false
		}
		wz.input.Name = text
		wz.step = stepDescription
	case stepDescription:
		if text == "" {
			return "Описание не может быть пустым.\n" + wz.Prompt(), false
		}
		wz.input.Description = text
		wz.step = stepPrice
	case stepPrice:
		price, err := strconv.ParseFloat(strings.ReplaceAll(text, " ", ""), 64)
		if err != nil || price <= 0 {
			return "Цена должна быть числом больше 0. Попробуйте ещё раз:", false
		}
		wz.input.Price = price
		wz.step = stepCategory
	case stepCategory:
		if text == "" {
			return "Категория не может быть пустой.\n" + wz.Prompt(), false
		}
		wz.input.Category = text
		wz.step = stepImage
	case stepImage:
		switch {
		case in.PhotoID != "":
			wz.photoID = in.PhotoID
		case text == skipImageInput:
			// без фото
		default:
			return "Пришлите фото или «-», чтобы пропустить:", false
		}
		wz.step = stepPopular
	case stepPopular:
		switch strings.ToLower(text) {
		case "да", "yes", "true":
			wz.input.Popular = true
		case "нет", "no", "false":
			wz.input.Popular = false
		default:
			return "Ответьте «да» или «нет»:", false
		}
		return "", true
	}
	return wz.Prompt(), false
}
