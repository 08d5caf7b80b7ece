package keys

// VirtualKey is one key of the on-screen layout. It is never mutated after the
// catalog is built.
type VirtualKey struct {
	Code Code

	// Native is the phonetic-script label; empty when the key has none.
	Native string
	// Lower and Upper are the Latin labels without and with shift.
	Lower string
	Upper string

	// FnLabel and FnTarget describe the function-layer remap, if any.
	FnLabel  string
	FnTarget Code
	HasFn    bool

	// Width is the display width in device-independent pixels.
	Width float32
}

// DefaultWidth is the width of an ordinary key.
const DefaultWidth = 65

// Catalog is the immutable key table, looked up by code.
type Catalog struct {
	rows [][]Code
	keys map[Code]VirtualKey
}

// NewCatalog builds a catalog from layout rows. Function-layer remaps are
// attached from fn; entries for codes absent from rows are ignored.
func NewCatalog(rows [][]VirtualKey, fn map[Code]FnRemap) *Catalog {
	c := &Catalog{keys: make(map[Code]VirtualKey)}
	for _, row := range rows {
		codes := make([]Code, 0, len(row))
		for _, k := range row {
			if k.Width == 0 {
				k.Width = DefaultWidth
			}
			if r, ok := fn[k.Code]; ok {
				k.FnLabel = r.Label
				k.FnTarget = r.Target
				k.HasFn = true
			}
			c.keys[k.Code] = k
			codes = append(codes, k.Code)
		}
		c.rows = append(c.rows, codes)
	}
	return c
}

// Lookup returns the key for code.
func (c *Catalog) Lookup(code Code) (VirtualKey, bool) {
	k, ok := c.keys[code]
	return k, ok
}

// FunctionTarget returns the code sent for code while the function layer is on.
func (c *Catalog) FunctionTarget(code Code) (Code, bool) {
	k, ok := c.keys[code]
	if !ok || !k.HasFn {
		return code, false
	}
	return k.FnTarget, true
}

// Rows returns the layout rows in display order.
func (c *Catalog) Rows() [][]VirtualKey {
	out := make([][]VirtualKey, len(c.rows))
	for i, row := range c.rows {
		out[i] = make([]VirtualKey, len(row))
		for j, code := range row {
			out[i][j] = c.keys[code]
		}
	}
	return out
}

// Codes returns every code in the catalog in display order.
func (c *Catalog) Codes() []Code {
	var out []Code
	for _, row := range c.rows {
		out = append(out, row...)
	}
	return out
}

// Len returns the number of keys.
func (c *Catalog) Len() int {
	return len(c.keys)
}
