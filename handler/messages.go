package handler

import (
	"net/http"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys of the error catalog.
const (
	msgAccountNotFound  = "error.account_not_found"
	msgDuplicateAccount = "error.duplicate_account"
	msgInsufficientFund = "error.insufficient_funds"
	msgValidation       = "error.validation"
	msgInvalidBody      = "error.invalid_body"
	msgUnsupportedType  = "error.unsupported_transaction_type"
	msgNotPersisted     = "error.not_persisted"
	msgInternal         = "error.internal"
)

var supportedLanguages = []language.Tag{language.English, language.Turkish}

var messageEntries = map[language.Tag]map[string]string{
	language.English: {
		msgAccountNotFound:  "Account not found",
		msgDuplicateAccount: "An account with this number already exists",
		msgInsufficientFund: "Insufficient funds for this transaction",
		msgValidation:       "Validation failed",
		msgInvalidBody:      "Invalid request body",
		msgUnsupportedType:  "Unsupported transaction type",
		msgNotPersisted:     "The transaction could not be saved, please retry",
		msgInternal:         "An unexpected error occurred",
	},
	language.Turkish: {
		msgAccountNotFound:  "Hesap bulunamadı",
		msgDuplicateAccount: "Bu numaraya sahip bir hesap zaten mevcut",
		msgInsufficientFund: "Bu işlem için bakiye yetersiz",
		msgValidation:       "Doğrulama başarısız",
		msgInvalidBody:      "Geçersiz istek gövdesi",
		msgUnsupportedType:  "Desteklenmeyen işlem türü",
		msgNotPersisted:     "İşlem kaydedilemedi, lütfen tekrar deneyin",
		msgInternal:         "Beklenmeyen bir hata oluştu",
	},
}

// Messages looks up error messages in the language the client asked for.
type Messages struct {
	catalog catalog.Catalog
	matcher language.Matcher
}

func NewMessages() *Messages {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, entries := range messageEntries {
		for key, msg := range entries {
			// SetString only fails for malformed messages, and these are literals.
			_ = b.SetString(tag, key, msg)
		}
	}
	return &Messages{catalog: b, matcher: language.NewMatcher(supportedLanguages)}
}

// Language picks the best supported language from the Accept-Language header.
func (m *Messages) Language(r *http.Request) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	if err != nil || len(tags) == 0 {
		return language.English
	}
	_, idx, _ := m.matcher.Match(tags...)
	return supportedLanguages[idx]
}

// Text returns the message for key in tag.
func (m *Messages) Text(tag language.Tag, key string) string {
	return message.NewPrinter(tag, message.Catalog(m.catalog)).Sprintf(key)
}
