package telegram

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/BekhruzCo/soma-selecto/internal/domain"
	"github.com/BekhruzCo/soma-selecto/internal/usecase"
)

var statusTexts = map[domain.Status]string{
	domain.StatusProcessing: "В обработке",
	domain.StatusDelivering: "Доставляется",
	domain.StatusCompleted:  "Доставлено",
	domain.StatusCancelled:  "Отменен",
}

func statusText(s domain.Status) string {
	if t, ok := statusTexts[s]; ok {
		return t
	}
	return string(s)
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// renderNewOrder — сообщение о новом заказе для канала операторов.
func renderNewOrder(o domain.Order, deliveryFee float64) string {
	var items strings.Builder
	for _, it := range o.Items {
		fmt.Fprintf(&items, "- %s x %d = %s сум\n", it.Name, it.Quantity, money(it.Price*float64(it.Quantity)))
	}
	deliveryText := "Бесплатно"
	totalWithDelivery := o.Total
	if !o.FreeDelivery {
		deliveryText = money(deliveryFee) + " сум"
		totalWithDelivery += deliveryFee
	}
	return fmt.Sprintf(`🆕 Новый заказ #%s!

👤 Клиент: %s
📞 Телефон: %s
🏠 Адрес: %s

🛒 Товары:
%s
💰 Сумма товаров: %s сум
🚚 Доставка: %s
💵 Итого: %s сум`,
		o.ID, o.Customer.Name, o.Customer.Phone, o.Customer.Address,
		items.String(), money(o.Total), deliveryText, money(totalWithDelivery))
}

// renderOrder — краткая сводка заказа для /orders, /status и
// перерисовки после смены статуса.
func renderOrder(o domain.Order) string {
	text := fmt.Sprintf(`Заказ #%s
Статус: %s
Клиент: %s
Телефон: %s
Адрес: %s
Сумма: %s сум`,
		o.ID, statusText(o.Status), o.Customer.Name, o.Customer.Phone, o.Customer.Address, money(o.Total))
	if o.Rating != nil {
		text += fmt.Sprintf("\nОценка: %d/5", *o.Rating)
	}
	return text
}

func renderProducts(products []domain.Product) string {
	if len(products) == 0 {
		return "Каталог пуст."
	}
	var b strings.Builder
	b.WriteString("📋 Каталог:\n\n")
	for _, p := range products {
		mark := ""
		if p.Popular {
			mark = " ⭐"
		}
		fmt.Fprintf(&b, "• %s — %s сум (%s)%s\n", p.Name, money(p.Price), p.Category, mark)
	}
	return b.String()
}

func renderStats(st usecase.Stats) string {
	var b strings.Builder
	b.WriteString("📊 Статистика заказов\n\n")
	fmt.Fprintf(&b, "Всего: %d\n", st.Total)
	for _, s := range []domain.Status{domain.StatusProcessing, domain.StatusDelivering, domain.StatusCompleted, domain.StatusCancelled} {
		fmt.Fprintf(&b, "%s: %d\n", statusText(s), st.ByStatus[s])
	}
	fmt.Fprintf(&b, "\n💵 Выручка (доставлено): %s сум\n", money(st.Revenue))
	if st.RatedCount > 0 {
		fmt.Fprintf(&b, "⭐ Средняя оценка: %.1f (%d оценок)\n", st.AvgRating, st.RatedCount)
	}
	return b.String()
}

// orderKeyboard — кнопки действий, 1:1 с переходами жизненного цикла.
func orderKeyboard(orderID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Принять", "accept_"+orderID),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🚚 Доставка", "deliver_"+orderID),
			tgbotapi.NewInlineKeyboardButtonData("✓ Завершить", "complete_"+orderID),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Отменить", "cancel_"+orderID),
		),
	)
}

func adminKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📋 Товары", "admin_products"),
			tgbotapi.NewInlineKeyboardButtonData("➕ Добавить товар", "admin_add"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🛒 Заказы", "admin_orders"),
			tgbotapi.NewInlineKeyboardButtonData("📊 Статистика", "admin_stats"),
		),
	)
}
