package ledger

import "strings"

// Kind identifies one of the closed set of transaction variants.
type Kind string

const (
	KindDeposit          Kind = "DEPOSIT"
	KindWithdrawal       Kind = "WITHDRAWAL"
	KindPhoneBillPayment Kind = "PHONE_BILL_PAYMENT"
	KindCheckPayment     Kind = "CHECK_PAYMENT"
)

var operationLabels = map[Kind]string{
	KindDeposit:          "Credit",
	KindWithdrawal:       "Debit",
	KindPhoneBillPayment: "PhoneBillPayment",
	KindCheckPayment:     "CheckPayment",
}

// Operation returns the human-readable operation label of the kind.
func (k Kind) Operation() string {
	if label, ok := operationLabels[k]; ok {
		return label
	}
	return string(k)
}

// Debiting reports whether transactions of this kind reduce the balance.
func (k Kind) Debiting() bool {
	return k == KindWithdrawal || k == KindPhoneBillPayment || k == KindCheckPayment
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	_, ok := operationLabels[k]
	return ok
}

// ParseKind accepts the kind identifier case-insensitively.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToUpper(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", invalid("transactionType", "unknown transaction type "+s)
	}
	return k, nil
}

// PhoneCompany is the closed set of phone companies a bill can be paid to.
type PhoneCompany string

const (
	CompanyA PhoneCompany = "COMPANY_A"
	CompanyB PhoneCompany = "COMPANY_B"
	CompanyC PhoneCompany = "COMPANY_C"
)

var phoneCompanyNames = map[PhoneCompany]string{
	CompanyA: "Company A",
	CompanyB: "Company B",
	CompanyC: "Company C",
}

// DisplayName returns the company name shown to customers.
func (c PhoneCompany) DisplayName() string {
	return phoneCompanyNames[c]
}

func (c PhoneCompany) Valid() bool {
	_, ok := phoneCompanyNames[c]
	return ok
}

// ParsePhoneCompany accepts the company identifier case-insensitively.
func ParsePhoneCompany(s string) (PhoneCompany, error) {
	c := PhoneCompany(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", invalid("phoneCompany", "unknown phone company "+s)
	}
	return c, nil
}
