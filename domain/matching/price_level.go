package matching

// priceLevel is a FIFO queue of resting orders at a single tick price.
// Insertion order is time priority.
type priceLevel struct {
	ticks int64 // price in ticks, the tree key

	head *Order
	tail *Order

	totalVolume int64
	count       int
}

func (p *priceLevel) enqueue(o *Order) {
	if p.head == nil {
		p.head = o
		p.tail = o
	} else {
		p.tail.next = o
		o.prev = p.tail
		p.tail = o
	}
	o.level = p
	p.totalVolume += o.Volume
	p.count++
}

func (p *priceLevel) popHead() *Order {
	o := p.head
	if o == nil {
		return nil
	}

	p.head = o.next
	if p.head != nil {
		p.head.prev = nil
	} else {
		p.tail = nil
	}

	o.next = nil
	o.prev = nil
	o.level = nil

	p.totalVolume -= o.Volume
	p.count--

	return o
}

// remove unlinks an order from anywhere in the queue, preserving the order
// of the remainder.
func (p *priceLevel) remove(o *Order) {
	if o.prev != nil {
		o.prev.next = o.next
	} else {
		p.head = o.next
	}
	if o.next != nil {
		o.next.prev = o.prev
	} else {
		p.tail = o.prev
	}

	o.next = nil
	o.prev = nil
	o.level = nil

	p.totalVolume -= o.Volume
	p.count--
}

func (p *priceLevel) empty() bool {
	return p.head == nil
}
