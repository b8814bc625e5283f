package models

// SupplierType distinguishes where stock comes from.
type SupplierType int

const (
	Wholesaler SupplierType = 1
	Factory    SupplierType = 2
)

// SupplierTypes lists the selectable types in display order.
func SupplierTypes() []SupplierType { return []SupplierType{Wholesaler, Factory} }

func (t SupplierType) String() string {
	switch t {
	case Wholesaler:
		return "Wholesaler"
	case Factory:
		return "Factory"
	}
	return "Unknown"
}

type Supplier struct {
	Base
	Type                SupplierType `gorm:"not null;default:1"            json:"type"`
	Name                string       `gorm:"size:150;not null;uniqueIndex" json:"name"`
	Phone               string       `gorm:"size:20;not null"              json:"phone"`
	Address             string       `gorm:"size:255"                      json:"address"`
	ContactPerson       string       `gorm:"size:100"                      json:"contact_person"`
	Website             string       `gorm:"size:255"                      json:"website"`
	FacebookPage        string       `gorm:"size:255"                      json:"facebook_page"`
	WhatsappNumber      string       `gorm:"size:20"                       json:"whatsapp_number"`
	MobileBankingNumber string       `gorm:"size:50"                       json:"mobile_banking_number"`
	BankAccountNumber   string       `gorm:"size:50"                       json:"bank_account_number"`

	Products []Product `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
}
