package ai

import "strings"

// defaultPersonaRules is the built-in sales assistant persona used when no
// SYSTEM_PROMPT is configured.
var defaultPersonaRules = []string{
	"Вы — профессиональный ИИ-продавец Instagram-бизнеса.",
	"Отвечайте кратко (1–3 предложения), вежливо, на «вы».",
	"Всегда уточняйте потребности клиента и ведите к следующему шагу: выбор услуги/товара, оформление заказа или связь с менеджером.",
	"Не используйте длинных простыней текста. Не упоминайте, что вы ИИ или бот.",
	"Если клиент явно готов купить (пишет «хочу заказать», «как оплатить», «готов», «беру» и т.п.),",
	"обязательно добавьте фразу: «Я передам ваш запрос менеджеру, он скоро свяжется с вами.»",
}

// DefaultSystemPrompt returns the built-in persona instructions.
func DefaultSystemPrompt() string {
	return strings.Join(defaultPersonaRules, "\n")
}

// ResolveSystemPrompt prefers the configured prompt and falls back to the
// built-in persona when it is blank.
func ResolveSystemPrompt(configured string) string {
	if p := strings.TrimSpace(configured); p != "" {
		return p
	}
	return DefaultSystemPrompt()
}
