package selectors

var builtin = map[string]RuleSet{
	"technox.pk": {
		Item:  ".product",
		Name:  Paths{".woocommerce-loop-product__title::text"},
		Specs: Paths{".product-short-description::text"},
		Model: Paths{".sku::text"},
		Price: Paths{".price bdi::text"},
	},
	"olx.com.pk": {
		Item:  "._7e3920c1",
		Name:  Paths{"._4684f251::text"},
		Specs: Paths{"._9c62ecdf::text"},
		Model: Paths{"._93444fe0::text"},
		Price: Paths{"._95eae7db::text"},
	},
	"paklap.pk": {
		Item:  ".product-item",
		Name:  Paths{".product-name::text"},
		Specs: Paths{".short-description::text"},
		Model: Paths{".sku::text"},
		Price: Paths{".price::text"},
	},
	"shophive.com": {
		Item:  ".product-item",
		Name:  Paths{".product-title::text"},
		Specs: Paths{".short-description::text"},
		Model: Paths{".model::text"},
		Price: Paths{".price bdi::text"},
	},
	"galaxy.pk": {
		Item:  ".product",
		Name:  Paths{".name::text"},
		Specs: Paths{".short-description::text"},
		Model: Paths{".sku::text"},
		Price: Paths{".price bdi::text"},
	},
	"fhlaptop.pk": {
		Item:  ".product",
		Name:  Paths{".woocommerce-loop-product__title::text"},
		Specs: Paths{".woocommerce-product-details__short-description::text"},
		Model: Paths{".sku::text"},
		Price: Paths{".price bdi::text"},
	},
	DefaultKey: {
		Item:  `.product, .item, [class*="product"], [class*="item"]`,
		Name:  Paths{"h2::text", "h3::text", ".name::text", ".title::text", `[class*="name"]::text`, `[class*="title"]::text`},
		Specs: Paths{".specs::text", ".description::text", `[class*="specs"]::text`, `[class*="description"]::text`},
		Model: Paths{".model::text", ".sku::text", `[class*="model"]::text`, `[class*="sku"]::text`},
		Price: Paths{".price::text", `[class*="price"]::text`},
	},
}

// Builtin returns the registry of hand-maintained rules for the known shops
func Builtin() *Registry {
	return MustNew(builtin)
}

// BuiltinTable returns a copy of the built-in rule table, for merging
func BuiltinTable() map[string]RuleSet {
	out := make(map[string]RuleSet, len(builtin))
	for d, rs := range builtin {
		out[d] = rs.clone()
	}
	return out
}

var startURLs = []string{
	"https://technox.pk/product-category/laptops/laptops-under-60k/",
	"https://www.olx.com.pk/laptops-computers-accessories_c443/q-16gb",
	"https://www.mega.pk/product/laptop-specs-ram-16gb/",
	"https://mrlaptop.pk/product-category/shop-by-specs/dedicated-graphics-card-laptops/",
	"https://www.daraz.pk/laptops",
	"https://www.shophive.com/laptop-notebook",
	"https://www.paklap.pk/laptops-prices.html",
	"https://www.homeshopping.pk/computer-laptop",
	"https://www.galaxy.pk/laptops",
	"https://www.tejar.pk/category/laptops",
	"https://www.ishopping.pk/laptops",
	"https://www.symbios.pk/collections/laptop",
	"https://www.vmart.pk/laptops",
	"https://www.clicky.pk/computers/laptops",
	"https://www.laptab.com.pk/laptops",
	"https://www.megastore.pk/laptops",
	"https://www.shoprex.com/laptops",
	"https://www.shopon.pk/laptops",
	"https://www.telemart.pk/computer/laptops.html",
	"https://www.techcity.pk/laptops",
	"https://www.computerzone.com.pk/laptops",
	"https://www.czone.com.pk/laptops",
	"https://www.pakdukaan.com/laptops",
	"https://myshop.pk/laptops-desktops-computers/laptops",
	"https://hf-store.pk/laptops",
	"https://www.computronix.com.pk",
	"https://centurycomputerpk.com",
	"https://intaglaptops.com",
	"https://wajiz.pk",
	"https://fhlaptop.pk",
	"https://priceoye.pk/laptops",
}

// StartURLs returns the root laptop listing page of every target shop
func StartURLs() []string {
	return append([]string(nil), startURLs...)
}
