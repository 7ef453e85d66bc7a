package domain

type Money struct {
	Currency string
	Amount   int64
}

type Product struct {
	ID          string
	Name        string
	Description string
	Price       Money
	Inventory   int64
	Image       string
}
