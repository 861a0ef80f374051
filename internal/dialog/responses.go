package dialog

import (
	"fmt"
	"strings"

	"avos/internal/domain"
)

// phraseKey selects one spoken response template.
type phraseKey string

const (
	phraseGreeting       phraseKey = "greeting"
	phraseLanguageSelect phraseKey = "language_select"
	phraseMenuPrompt     phraseKey = "menu_prompt"
	phraseAdded          phraseKey = "added"
	phraseRemoved        phraseKey = "removed"
	phraseNotInCart      phraseKey = "not_in_cart"
	phraseClarify        phraseKey = "clarify"
	phraseDidNotCatch    phraseKey = "did_not_catch"
	phraseEmptyCart      phraseKey = "empty_cart"
	phraseOrderReview    phraseKey = "order_review"
	phraseUpsellOffer    phraseKey = "upsell_offer"
	phraseConfirmOrder   phraseKey = "confirm_order"
	phrasePayment        phraseKey = "payment"
	phraseHumanTransfer  phraseKey = "human_transfer"
	phraseGoodbye        phraseKey = "goodbye"
	phraseAnythingElse   phraseKey = "anything_else"
	phraseUnavailable    phraseKey = "unavailable"
	phraseTechnical      phraseKey = "technical"
)

// phrases holds the spoken response templates per language. Placeholders are
// positional fmt verbs; callers pass arguments in the order the English
// template names them.
var phrases = map[domain.Language]map[phraseKey]string{
	domain.LanguageEnglish: {
		phraseGreeting:       "Thank you for calling %s. What can I get started for you?",
		phraseLanguageSelect: "Thank you for calling %s. For English, say English. 中文请说中文. Para español, diga español.",
		phraseMenuPrompt:     "Great. What would you like to order?",
		phraseAdded:          "Got it, %d %s. Your subtotal is $%s. Anything else?",
		phraseRemoved:        "Okay, I removed %s. Your subtotal is $%s. Anything else?",
		phraseNotInCart:      "I don't see %s in your order. Anything else?",
		phraseClarify:        "I'm sorry, I couldn't find that on the menu. Could you repeat the item name?",
		phraseDidNotCatch:    "Sorry, I didn't catch that. %s",
		phraseEmptyCart:      "Your order is empty so far. What would you like?",
		phraseOrderReview:    "So far you have %s, for a subtotal of $%s. Shall I place the order?",
		phraseUpsellOffer:    "Would you like to add %s for $%s?",
		phraseConfirmOrder:   "To confirm: %s, subtotal $%s plus tax. Shall I send you the payment link?",
		phrasePayment:        "Perfect. Your total is $%s including tax. I'm texting a payment link to your phone now; it's valid for 30 minutes.",
		phraseHumanTransfer:  "Let me connect you with a member of our staff. One moment please.",
		phraseGoodbye:        "Thank you for calling. Goodbye!",
		phraseAnythingElse:   "No problem. Anything else?",
		phraseUnavailable:    "I'm sorry, %s isn't available today. Anything else?",
		phraseTechnical:      "I'm sorry, we're having technical difficulty with that right now. Please bear with me.",
	},
	domain.LanguageMandarin: {
		phraseGreeting:       "感谢致电%s。请问想点些什么？",
		phraseLanguageSelect: "感谢致电%s。For English, say English. 中文请说中文.",
		phraseMenuPrompt:     "好的，请问想点什么？",
		phraseAdded:          "好的，%d份%s。小计%s美元。还要别的吗？",
		phraseRemoved:        "好的，已去掉%s。小计%s美元。还要别的吗？",
		phraseNotInCart:      "您的订单里没有%s。还要别的吗？",
		phraseClarify:        "抱歉，菜单上没有找到。请再说一次菜名。",
		phraseDidNotCatch:    "抱歉，没有听清。%s",
		phraseEmptyCart:      "您还没有点餐。请问想点什么？",
		phraseOrderReview:    "您点了%s，小计%s美元。现在下单吗？",
		phraseUpsellOffer:    "要加一份%s吗？%s美元。",
		phraseConfirmOrder:   "确认一下：%s，小计%s美元另加税。现在发送付款链接吗？",
		phrasePayment:        "好的。含税总计%s美元。付款链接已发送到您的手机，30分钟内有效。",
		phraseHumanTransfer:  "正在为您转接工作人员，请稍候。",
		phraseGoodbye:        "感谢来电，再见！",
		phraseAnythingElse:   "好的。还要别的吗？",
		phraseUnavailable:    "抱歉，%s今天没有供应。还要别的吗？",
		phraseTechnical:      "抱歉，系统暂时出现问题，请稍候。",
	},
	domain.LanguageCantonese: {
		phraseGreeting:       "多謝致電%s。請問想食啲咩？",
		phraseLanguageSelect: "多謝致電%s。For English, say English. 廣東話請講廣東話.",
		phraseMenuPrompt:     "好，請問想點啲咩？",
		phraseAdded:          "好，%d份%s。小計%s美元。仲要啲咩？",
		phraseRemoved:        "好，已經除咗%s。小計%s美元。仲要啲咩？",
		phraseNotInCart:      "你張單冇%s。仲要啲咩？",
		phraseClarify:        "唔好意思，餐牌上面搵唔到。可唔可以再講一次？",
		phraseDidNotCatch:    "唔好意思，聽唔清楚。%s",
		phraseEmptyCart:      "你仲未點嘢。請問想食啲咩？",
		phraseOrderReview:    "你點咗%s，小計%s美元。而家落單？",
		phraseUpsellOffer:    "加唔加一份%s？%s美元。",
		phraseConfirmOrder:   "確認一下：%s，小計%s美元連稅。而家發付款連結？",
		phrasePayment:        "好。連稅總共%s美元。付款連結已經發咗去你手機，30分鐘內有效。",
		phraseHumanTransfer:  "而家幫你轉駁職員，請等等。",
		phraseGoodbye:        "多謝致電，拜拜！",
		phraseAnythingElse:   "好。仲要啲咩？",
		phraseUnavailable:    "唔好意思，%s今日冇供應。仲要啲咩？",
		phraseTechnical:      "唔好意思，系统暂时有啲问题，请等等。",
	},
	domain.LanguageSpanish: {
		phraseGreeting:       "Gracias por llamar a %s. ¿Qué le gustaría ordenar?",
		phraseLanguageSelect: "Gracias por llamar a %s. For English, say English. Para español, diga español.",
		phraseMenuPrompt:     "Perfecto. ¿Qué le gustaría ordenar?",
		phraseAdded:          "Listo, %d %s. Su subtotal es $%s. ¿Algo más?",
		phraseRemoved:        "De acuerdo, quité %s. Su subtotal es $%s. ¿Algo más?",
		phraseNotInCart:      "No veo %s en su orden. ¿Algo más?",
		phraseClarify:        "Lo siento, no encontré eso en el menú. ¿Puede repetir el nombre del platillo?",
		phraseDidNotCatch:    "Perdón, no le entendí. %s",
		phraseEmptyCart:      "Su orden está vacía. ¿Qué le gustaría?",
		phraseOrderReview:    "Lleva %s, con un subtotal de $%s. ¿Confirmo la orden?",
		phraseUpsellOffer:    "¿Le gustaría agregar %s por $%s?",
		phraseConfirmOrder:   "Para confirmar: %s, subtotal $%s más impuestos. ¿Le envío el enlace de pago?",
		phrasePayment:        "Perfecto. Su total es $%s con impuestos. Le envío el enlace de pago a su teléfono; es válido por 30 minutos.",
		phraseHumanTransfer:  "Le comunico con un miembro del personal. Un momento por favor.",
		phraseGoodbye:        "Gracias por llamar. ¡Hasta luego!",
		phraseAnythingElse:   "Muy bien. ¿Algo más?",
		phraseUnavailable:    "Lo siento, %s no está disponible hoy. ¿Algo más?",
		phraseTechnical:      "Lo siento, estamos teniendo una dificultad técnica. Un momento por favor.",
	},
}

// phrase formats the template for key in lang, falling back to English for a
// language without a table.
func phrase(lang domain.Language, key phraseKey, args ...any) string {
	table, ok := phrases[lang]
	if !ok {
		table = phrases[domain.LanguageEnglish]
	}
	tmpl, ok := table[key]
	if !ok {
		tmpl = phrases[domain.LanguageEnglish][key]
	}
	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}

// dollars renders integer cents as a dollar string for speech.
func dollars(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}

// readBack renders the cart lines for read-back, e.g.
// "2 Spring Rolls and 1 Kung Pao Chicken".
func readBack(lang domain.Language, items []domain.OrderItem) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, fmt.Sprintf("%d %s", it.Quantity, it.Name))
	}
	sep, last := ", ", " and "
	switch lang {
	case domain.LanguageMandarin, domain.LanguageCantonese:
		sep, last = "、", "、"
	case domain.LanguageSpanish:
		last = " y "
	}
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		return strings.Join(parts[:len(parts)-1], sep) + last + parts[len(parts)-1]
	}
}
