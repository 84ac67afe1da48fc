package types

// Product is a vendor catalog entry.
type Product struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Vendor      string   `json:"vendor"`
	Category    string   `json:"category"`
	Finish      string   `json:"finish"`
	Coverage    float64  `json:"coverage"`
	Durability  int      `json:"durability"`
	Cost        float64  `json:"cost"`
	Reliability *float64 `json:"reliability,omitempty"`
	LeadTime    int      `json:"lead_time"`
}

// ReliabilityOrZero returns the reliability rating or 0 when the catalog has none.
func (p Product) ReliabilityOrZero() float64 {
	if p.Reliability == nil {
		return 0
	}
	return *p.Reliability
}

// VendorCatalog holds one vendor's products in catalog order.
type VendorCatalog struct {
	Name     string    `json:"name"`
	Products []Product `json:"products"`
}

// Catalog is an ordered vendor -> products mapping.
type Catalog struct {
	Vendors []VendorCatalog `json:"vendors"`
}

// VendorNames returns vendor names in catalog order.
func (c *Catalog) VendorNames() []string {
	names := make([]string, 0, len(c.Vendors))
	for _, v := range c.Vendors {
		names = append(names, v.Name)
	}
	return names
}

// Products returns the products of a vendor, or nil if the vendor is unknown.
func (c *Catalog) Products(vendor string) []Product {
	for _, v := range c.Vendors {
		if v.Name == vendor {
			return v.Products
		}
	}
	return nil
}

// Product looks a product up by vendor and id.
func (c *Catalog) Product(vendor, id string) (Product, bool) {
	for _, p := range c.Products(vendor) {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}
