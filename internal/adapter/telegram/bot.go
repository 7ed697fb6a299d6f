package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/BekhruzCo/soma-selecto/internal/adapter/cache"
	"github.com/BekhruzCo/soma-selecto/internal/domain"
	"github.com/BekhruzCo/soma-selecto/internal/usecase"
)

// API — часть telegram-bot-api, которую использует шлюз. Узкий
// интерфейс нужен тестам.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// actionStatuses — соответствие кнопок переходам жизненного цикла.
var actionStatuses = map[string]domain.Status{
	"accept":   domain.StatusProcessing,
	"deliver":  domain.StatusDelivering,
	"complete": domain.StatusCompleted,
	"cancel":   domain.StatusCancelled,
}

var actionDone = map[string]string{
	"accept":   "принят в обработку",
	"deliver":  "передан в доставку",
	"complete": "доставлен",
	"cancel":   "отменен",
}

// Usecases — операции хранилищ, доступные боту.
type Usecases struct {
	ListOrders usecase.ListOrders
	GetOrder   usecase.GetOrder
	SetStatus  usecase.SetOrderStatus
	Stats      usecase.OrderStats

	ListProducts  usecase.ListProducts
	CreateProduct usecase.CreateProduct
}

// Bot — шлюз уведомлений: рассылает новые заказы в канал операторов,
// обрабатывает кнопки статусов и админский мастер добавления товара.
type Bot struct {
	api         API
	channelID   int64
	operators   map[int64]bool
	deliveryFee float64
	uc          Usecases
	orders      *cache.MemoryOrderCache
	client      *http.Client

	mu       sync.Mutex
	sessions map[int64]*wizard
}

// Config — параметры шлюза.
type Config struct {
	ChannelID   int64
	Operators   []int64
	DeliveryFee float64
}

func NewBot(api API, cfg Config, uc Usecases) *Bot {
	ops := make(map[int64]bool, len(cfg.Operators))
	for _, id := range cfg.Operators {
		ops[id] = true
	}
	fee := cfg.DeliveryFee
	if fee == 0 {
		fee = 15000
	}
	return &Bot{
		api:         api,
		channelID:   cfg.ChannelID,
		operators:   ops,
		deliveryFee: fee,
		uc:          uc,
		orders:      cache.NewMemoryOrderCache(),
		client:      &http.Client{Timeout: 30 * time.Second},
		sessions:    make(map[int64]*wizard),
	}
}

// Run крутит цикл обновлений до отмены контекста. Ошибки отдельных
// обработчиков логируются и не останавливают цикл.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)
	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()
	for update := range updates {
		b.HandleUpdate(ctx, update)
	}
}

// HandleUpdate обрабатывает одно обновление Telegram.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		b.handleCommand(ctx, update.Message)
	case update.Message != nil:
		b.handleWizardInput(ctx, update.Message)
	}
}

// HandleNewOrder — обработчик входящих событий заказов. Подключается
// к подписчику шины; ошибка разбора не возвращается, чтобы битое
// сообщение не переотправлялось вечно.
func (b *Bot) HandleNewOrder(ctx context.Context, raw []byte) error {
	var o domain.Order
	if err := json.Unmarshal(raw, &o); err != nil {
		log.Printf("skip malformed order event: %v", err)
		return nil
	}
	if o.ID == "" {
		log.Printf("skip order event without id")
		return nil
	}
	b.orders.Set(o.ID, o)
	msg := tgbotapi.NewMessage(b.channelID, renderNewOrder(o, b.deliveryFee))
	msg.ReplyMarkup = orderKeyboard(o.ID)
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send order %s to channel: %w", o.ID, err)
	}
	return nil
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	switch msg.Command() {
	case "start":
		b.reply(chatID, "Привет! Я бот для управления заказами Denov Baraka Somsa. Используйте /help для списка команд.")
	case "help":
		b.reply(chatID, `Доступные команды:
/start - Начать работу с ботом
/help - Показать эту справку
/orders - Показать активные заказы
/products - Показать каталог
/status <id> - Показать заказ
/stats - Статистика заказов
/admin - Меню администратора

Статусы заказов обновляются кнопками под сообщениями о заказах.`)
	case "orders":
		b.cmdOrders(ctx, chatID)
	case "products":
		b.cmdProducts(ctx, chatID)
	case "status":
		b.cmdStatus(ctx, chatID, strings.TrimSpace(msg.CommandArguments()))
	case "stats":
		b.cmdStats(ctx, chatID)
	case "admin":
		b.cmdAdmin(msg)
	case "cancel":
		b.clearSession(chatID)
		b.reply(chatID, "Действие отменено.")
	default:
		b.reply(chatID, "Неизвестная команда. Используйте /help.")
	}
}

func (b *Bot) cmdOrders(ctx context.Context, chatID int64) {
	orders, err := b.uc.ListOrders.Execute(ctx)
	if err != nil {
		log.Printf("list orders: %v", err)
		b.reply(chatID, "Не удалось получить заказы, попробуйте позже.")
		return
	}
	var active int
	for _, o := range orders {
		if o.Status.Terminal() {
			continue
		}
		active++
		msg := tgbotapi.NewMessage(chatID, renderOrder(o))
		msg.ReplyMarkup = orderKeyboard(o.ID)
		b.send(msg)
	}
	if active == 0 {
		b.reply(chatID, "Нет активных заказов.")
	}
}

func (b *Bot) cmdProducts(ctx context.Context, chatID int64) {
	products, err := b.uc.ListProducts.Execute(ctx)
	if err != nil {
		log.Printf("list products: %v", err)
		b.reply(chatID, "Не удалось получить каталог, попробуйте позже.")
		return
	}
	b.reply(chatID, renderProducts(products))
}

func (b *Bot) cmdStatus(ctx context.Context, chatID int64, id string) {
	if id == "" {
		b.reply(chatID, "Укажите идентификатор: /status <id>")
		return
	}
	o, ok := b.orders.Get(id)
	if !ok {
		var err error
		o, err = b.uc.GetOrder.Execute(ctx, id)
		if err != nil {
			b.reply(chatID, "Заказ не найден.")
			return
		}
		b.orders.Set(o.ID, o)
	}
	msg := tgbotapi.NewMessage(chatID, renderOrder(o))
	if !o.Status.Terminal() {
		msg.ReplyMarkup = orderKeyboard(o.ID)
	}
	b.send(msg)
}

func (b *Bot) cmdStats(ctx context.Context, chatID int64) {
	st, err := b.uc.Stats.Execute(ctx)
	if err != nil {
		log.Printf("order stats: %v", err)
		b.reply(chatID, "Не удалось получить статистику, попробуйте позже.")
		return
	}
	b.reply(chatID, renderStats(st))
}

func (b *Bot) cmdAdmin(msg *tgbotapi.Message) {
	if !b.authorized(msg.From) {
		b.reply(msg.Chat.ID, "Недостаточно прав для этого действия.")
		return
	}
	b.clearSession(msg.Chat.ID)
	out := tgbotapi.NewMessage(msg.Chat.ID, "Меню администратора:")
	out.ReplyMarkup = adminKeyboard()
	b.send(out)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	data := cb.Data
	if section, ok := strings.CutPrefix(data, "admin_"); ok {
		b.handleAdminCallback(ctx, cb, section)
		return
	}
	action, orderID, ok := strings.Cut(data, "_")
	status, known := actionStatuses[action]
	if !ok || !known {
		b.answer(cb.ID, "Неизвестное действие.")
		return
	}
	if !b.authorized(cb.From) {
		b.answer(cb.ID, "Недостаточно прав для этого действия.")
		return
	}
	updated, err := b.uc.SetStatus.Execute(ctx, orderID, status)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound):
		b.answer(cb.ID, "Заказ не найден.")
		return
	default:
		log.Printf("set status %s on %s: %v", status, orderID, err)
		b.answer(cb.ID, "Не удалось обновить заказ.")
		return
	}

	if updated.Status.Terminal() {
		b.orders.Delete(orderID)
	} else {
		b.orders.Set(orderID, updated)
	}
	if cb.Message != nil {
		if updated.Status.Terminal() {
			// редактирование без разметки убирает кнопки у закрытого заказа
			b.send(tgbotapi.NewEditMessageText(cb.Message.Chat.ID, cb.Message.MessageID, renderOrder(updated)))
		} else {
			b.send(tgbotapi.NewEditMessageTextAndMarkup(
				cb.Message.Chat.ID, cb.Message.MessageID, renderOrder(updated), orderKeyboard(orderID)))
		}
	}
	b.answer(cb.ID, fmt.Sprintf("Заказ #%s %s", orderID, actionDone[action]))
}

func (b *Bot) handleAdminCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, section string) {
	if !b.authorized(cb.From) {
		b.answer(cb.ID, "Недостаточно прав для этого действия.")
		return
	}
	if cb.Message == nil {
		b.answer(cb.ID, "")
		return
	}
	chatID := cb.Message.Chat.ID
	switch section {
	case "products":
		b.cmdProducts(ctx, chatID)
	case "orders":
		b.cmdOrders(ctx, chatID)
	case "stats":
		b.cmdStats(ctx, chatID)
	case "add":
		wz := newWizard()
		b.mu.Lock()
		b.sessions[chatID] = wz
		b.mu.Unlock()
		b.reply(chatID, "Добавление товара. "+wz.Prompt()+"\nОтмена: /cancel")
	default:
		b.answer(cb.ID, "Неизвестный раздел.")
		return
	}
	b.answer(cb.ID, "")
}

func (b *Bot) handleWizardInput(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	b.mu.Lock()
	wz := b.sessions[chatID]
	b.mu.Unlock()
	if wz == nil {
		return
	}
	if !b.authorized(msg.From) {
		b.clearSession(chatID)
		b.reply(chatID, "Недостаточно прав для этого действия.")
		return
	}

	in := wizardInput{Text: msg.Text}
	if len(msg.Photo) > 0 {
		// последний размер — самый крупный
		in.PhotoID = msg.Photo[len(msg.Photo)-1].FileID
	}
	reply, done := wz.Next(in)
	if !done {
		b.reply(chatID, reply)
		return
	}

	product, err := b.submitWizard(ctx, wz)
	b.clearSession(chatID)
	if err != nil {
		log.Printf("wizard submit: %v", err)
		b.reply(chatID, "Не удалось сохранить товар. Попробуйте ещё раз через /admin.")
		return
	}
	b.reply(chatID, fmt.Sprintf("✅ Товар «%s» добавлен в каталог (id %s, цена %s сум).",
		product.Name, product.ID, money(product.Price)))
}

func (b *Bot) submitWizard(ctx context.Context, wz *wizard) (domain.Product, error) {
	var upload *domain.AssetUpload
	if wz.photoID != "" {
		url, err := b.api.GetFileDirectURL(wz.photoID)
		if err != nil {
			return domain.Product{}, fmt.Errorf("resolve photo url: %w", err)
		}
		resp, err := b.client.Get(url)
		if err != nil {
			return domain.Product{}, fmt.Errorf("download photo: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return domain.Product{}, fmt.Errorf("download photo: status %d", resp.StatusCode)
		}
		// Telegram отдаёт фото в jpeg
		upload = &domain.AssetUpload{Filename: wz.photoID + ".jpg", Data: resp.Body}
	}
	return b.uc.CreateProduct.Execute(ctx, wz.input, upload)
}

func (b *Bot) authorized(user *tgbotapi.User) bool {
	return user != nil && b.operators[user.ID]
}

func (b *Bot) clearSession(chatID int64) {
	b.mu.Lock()
	delete(b.sessions, chatID)
	b.mu.Unlock()
}

func (b *Bot) reply(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		log.Printf("telegram send: %v", err)
	}
}

func (b *Bot) answer(callbackID, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		log.Printf("telegram callback answer: %v", err)
	}
}
