package models

const (
	InteractionView   = "view"
	InteractionClick  = "click"
	InteractionRedeem = "redeem"

	ChainPickNPay   = "Pick n Pay"
	ChainCheckers   = "Checkers"
	ChainWoolworths = "Woolworths"
	ChainSpar       = "Spar"
	ChainShoprite   = "Shoprite"
)

// DefaultChains are the retail chains fixtures are generated for.
var DefaultChains = []string{ChainPickNPay, ChainCheckers, ChainWoolworths, ChainSpar, ChainShoprite}

// DefaultCategories are the deal tags fixtures draw from.
var DefaultCategories = []string{
	"Groceries", "Household", "Personal Care", "Bakery", "Butchery", "Beverages",
	"Baby", "Pet", "Frozen", "Fresh Produce", "Snacks", "Electronics",
}
