package filter

// FilterChain passes an exchange through its filters in order and finally to
// the handler. Each filter decides whether to continue the chain.
type FilterChain struct {
	filters []Filter
	handler Handler
	current Filter
	chain   *FilterChain
}

// Handler receives every exchange that passed all filters.
type Handler func(ex *Exchange) error

func NewFilterChain(handler Handler, filters []Filter) *FilterChain {
	allFilters := make([]Filter, len(filters))
	copy(allFilters, filters)
	chain := initChain(allFilters, handler)
	return &FilterChain{
		filters: allFilters,
		handler: handler,
		chain:   chain.chain,
		current: chain.current,
	}
}

func newChain(filters []Filter, handler Handler, current Filter, chain *FilterChain) *FilterChain {
	return &FilterChain{
		filters: filters,
		handler: handler,
		current: current,
		chain:   chain,
	}
}

func initChain(filters []Filter, handler Handler) *FilterChain {
	chain := newChain(filters, handler, nil, nil)
	for i := len(filters) - 1; i >= 0; i-- {
		chain = newChain(filters, handler, filters[i], chain)
	}
	return chain
}

func (c *FilterChain) GetFilters() []Filter {
	return c.filters
}

// Filter runs the remaining filters on ex and returns the first error.
func (c *FilterChain) Filter(ex *Exchange) error {
	if c.current != nil && c.chain != nil {
		return c.current.Filter(ex, c.chain)
	}
	return c.handler(ex)
}
