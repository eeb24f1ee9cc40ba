package bot

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"github.com/m3rciful/offerbot/internal/config"
	"github.com/m3rciful/offerbot/internal/conversation"
	"github.com/m3rciful/offerbot/internal/entitlement"
)

// Catalog holds the user-facing texts of one language.
// Entries ending in F are fmt templates.
type Catalog struct {
	Tag language.Tag

	Welcome        string
	InvalidPhone   string
	CodeSent       string
	CodeSentCodeF  string // code
	InvalidCode    string
	WrongCode      string
	CodeExpired    string
	NoPendingCode  string
	GrantedF       string // balance, expiry
	CooldownF      string // remaining
	StatusActiveF  string // balance, expiry, remaining
	StatusExpiredF string // expiry
	NoEntitlement  string
	Cancelled      string
	Help           string
	Hint           string
	Failure        string
	Unsupported    string
	RateLimited    string

	RemainingF string // days, hours, minutes
}

var arabic = Catalog{
	Tag: language.Arabic,

	Welcome: "👇مرحبا بك 💜\n\n" +
		"يمكنك تفعيل أنترنت مجاني هنا 🥳.\n\n" +
		"لا تنسى الاعجاب بالصفحة لدعمنا على تقديم المزيد ✨.\n\n" +
		"أرسل رقمك الان 👇🏻",
	InvalidPhone:  "🙅\n\nالرجاء إدخال رقم هاتف صحيح (مثال: 07........)",
	CodeSent:      "🙌\n\nتم استلام\n\nالرجاء إدخال رمز التحقق الذي تم إرساله إلى هاتفك:",
	CodeSentCodeF: "🙌\n\nتم استلام\n\nرمز التحقق الخاص بك: %s\n\nالرجاء إدخاله هنا:",
	InvalidCode:   "...\n\nالرجاء إدخال رمز تحقق صحيح مكون من 4 أرقام فقط.",
	WrongCode:     "❌\n\nرمز التحقق غير صحيح. حاول مرة أخرى أو استخدم /cancel للإلغاء.",
	CodeExpired:   "⌛\n\nانتهت صلاحية رمز التحقق. استخدم الأمر /start للحصول على رمز جديد.",
	NoPendingCode: "⌛\n\nلا يوجد رمز تحقق صالح. استخدم الأمر /start للبدء من جديد.",
	GrantedF: "🎊تم تفعيل أنترنت مجاني في شريحتك بنجاح ✓\n\n" +
		"• رصيدك الان : (%s)\n" +
		"• صالح إلى غاية: %s\n\n" +
		"استمتع بالإنترنت المجاني! 🎉",
	CooldownF: "عذراً، لا يمكنك الحصول على عرض جديد حالياً.\n\n" +
		"يجب الانتظار %s قبل طلب عرض جديد.\n\n" +
		"شكراً لتفهمك! 🙏",
	StatusActiveF: "حالة الإنترنت الخاص بك:\n\n" +
		"• رصيدك المتبقي: %s\n" +
		"• صالح إلى غاية: %s\n" +
		"• الوقت المتبقي: %s",
	StatusExpiredF: "😿حالة الإنترنت الخاص بك:\n\n" +
		"• صالح إلى غاية: %s\n" +
		"• الوقت المتبقي: منتهي الصلاحية\n\n" +
		"استخدم الأمر /start للحصول على عرض جديد.",
	NoEntitlement: "💢\n\nليس لديك أي عرض إنترنت نشط حالياً.\n\nاستخدم الأمر /start للحصول على عرض جديد.",
	Cancelled:     "🙅تم إلغاء العملية. استخدم الأمر /start للبدء من جديد وتفعيل الإنترنت المجاني.",
	Help: "👇👇أوامر البوت المتاحة:\n\n" +
		"/start - بدء عملية تفعيل الإنترنت المجاني\n" +
		"/status - التحقق من حالة الإنترنت الخاص بك\n" +
		"/cancel - إلغاء العملية الجارية\n" +
		"/help - عرض هذه الرسالة المساعدة",
	Hint:        "استخدم الأمر /start للحصول على عرض جديد، أو /help لعرض الأوامر.",
	Failure:     "⚠️ حدث خطأ مؤقت. الرجاء المحاولة مرة أخرى لاحقاً.",
	Unsupported: "الرجاء إرسال رسالة نصية فقط.",
	RateLimited: "⏳ الرجاء الانتظار قليلاً قبل إرسال رسالة أخرى.",
	RemainingF:  "%d يوم و %d ساعة و %d دقيقة",
}

var english = Catalog{
	Tag: language.English,

	Welcome: "👇 Welcome 💜\n\n" +
		"You can activate free internet here 🥳.\n\n" +
		"Don't forget to like the page to support us ✨.\n\n" +
		"Send your phone number now 👇🏻",
	InvalidPhone:  "🙅\n\nPlease enter a valid phone number (example: 07........)",
	CodeSent:      "🙌\n\nReceived.\n\nPlease enter the verification code sent to your phone:",
	CodeSentCodeF: "🙌\n\nReceived.\n\nYour verification code: %s\n\nPlease enter it here:",
	InvalidCode:   "...\n\nPlease enter a valid verification code of exactly 4 digits.",
	WrongCode:     "❌\n\nThe verification code is incorrect. Try again or use /cancel to abort.",
	CodeExpired:   "⌛\n\nThe verification code has expired. Use /start to get a new one.",
	NoPendingCode: "⌛\n\nThere is no valid verification code. Use /start to begin again.",
	GrantedF: "🎊 Free internet was activated on your SIM ✓\n\n" +
		"• Balance: (%s)\n" +
		"• Valid until: %s\n\n" +
		"Enjoy! 🎉",
	CooldownF: "Sorry, you cannot get a new offer right now.\n\n" +
		"Please wait %s before requesting a new offer.\n\n" +
		"Thanks for understanding! 🙏",
	StatusActiveF: "Your internet status:\n\n" +
		"• Remaining balance: %s\n" +
		"• Valid until: %s\n" +
		"• Time left: %s",
	StatusExpiredF: "😿 Your internet status:\n\n" +
		"• Valid until: %s\n" +
		"• Time left: expired\n\n" +
		"Use /start to get a new offer.",
	NoEntitlement: "💢\n\nYou have no active internet offer.\n\nUse /start to get a new offer.",
	Cancelled:     "🙅 Cancelled. Use /start to begin again and activate free internet.",
	Help: "👇👇 Available commands:\n\n" +
		"/start - start the free internet activation\n" +
		"/status - check your internet status\n" +
		"/cancel - cancel the current operation\n" +
		"/help - show this help message",
	Hint:        "Use /start to get a new offer, or /help to list the commands.",
	Failure:     "⚠️ A temporary error occurred. Please try again later.",
	Unsupported: "Please send text messages only.",
	RateLimited: "⏳ Please wait a moment before sending another message.",
	RemainingF:  "%d days, %d hours and %d minutes",
}

var catalogs = []*Catalog{&arabic, &english}

// Catalogs picks a Catalog per user according to bot.language.
type Catalogs struct {
	fixed   *Catalog
	matcher language.Matcher
}

// NewCatalogs returns a selector for setting, one of auto, ar, en.
func NewCatalogs(setting string) *Catalogs {
	tags := make([]language.Tag, len(catalogs))
	for i, c := range catalogs {
		tags[i] = c.Tag
	}
	cs := &Catalogs{matcher: language.NewMatcher(tags)}
	switch setting {
	case config.LanguageArabic:
		cs.fixed = &arabic
	case config.LanguageEnglish:
		cs.fixed = &english
	}
	return cs
}

// For returns the catalog for a Telegram language code. Unknown or empty
// codes fall back to Arabic.
func (cs *Catalogs) For(languageCode string) *Catalog {
	if cs.fixed != nil {
		return cs.fixed
	}
	code := strings.TrimSpace(languageCode)
	if code == "" {
		return &arabic
	}
	_, idx, conf := cs.matcher.Match(language.Make(code))
	if conf == language.No {
		return &arabic
	}
	return catalogs[idx]
}

// Remaining renders a day/hour/minute breakdown.
func (c *Catalog) Remaining(r entitlement.Remaining) string {
	return fmt.Sprintf(c.RemainingF, r.Days, r.Hours, r.Minutes)
}

// Render turns a machine reply into text.
func (c *Catalog) Render(r conversation.Reply, balance string) string {
	switch r.Kind {
	case conversation.ReplyWelcome:
		return c.Welcome
	case conversation.ReplyCooldown:
		return fmt.Sprintf(c.CooldownF, c.Remaining(r.Cooldown.Remaining))
	case conversation.ReplyStatusActive:
		return fmt.Sprintf(c.StatusActiveF, balance, r.Status.Expiry, c.Remaining(r.Status.Remaining))
	case conversation.ReplyStatusExpired:
		return fmt.Sprintf(c.StatusExpiredF, r.Status.Expiry)
	case conversation.ReplyNoEntitlement:
		return c.NoEntitlement
	case conversation.ReplyInvalidPhone:
		return c.InvalidPhone
	case conversation.ReplyCodeSent:
		if r.Code != "" {
			return fmt.Sprintf(c.CodeSentCodeF, r.Code)
		}
		return c.CodeSent
	case conversation.ReplyInvalidCode:
		return c.InvalidCode
	case conversation.ReplyWrongCode:
		return c.WrongCode
	case conversation.ReplyCodeExpired:
		return c.CodeExpired
	case conversation.ReplyNoPendingCode:
		return c.NoPendingCode
	case conversation.ReplyGranted:
		return fmt.Sprintf(c.GrantedF, balance, r.Status.Expiry)
	case conversation.ReplyCancelled:
		return c.Cancelled
	case conversation.ReplyHelp:
		return c.Help
	default:
		return c.Hint
	}
}
