package components

// ActionOffer is one action a world object supports, with its base
// desirability and the radius inside which birds will consider it.
type ActionOffer struct {
	Action      ActionType
	BaseUtility float32
	Range       float32
}

// UtilityProvider marks an entity as a world object birds can use: a
// feeder, bath, perch, shrub, nest box. One object can offer several
// actions (a birdbath offers both Drink and Bathe).
type UtilityProvider struct {
	Offers    []ActionOffer
	Capacity  int     // simultaneous users, 0 means unlimited
	Occupants int     // current users, maintained by state execution
	Resource  float32 // remaining supply for consuming actions, <0 means infinite
	Depleted  bool
	Expires   float64 // sim time after which the object is removed, 0 means permanent
}

// Offer returns the offer for an action, or nil when the object does not
// support it.
func (u *UtilityProvider) Offer(a ActionType) *ActionOffer {
	for i := range u.Offers {
		if u.Offers[i].Action == a {
			return &u.Offers[i]
		}
	}
	return nil
}

// HasRoom reports whether another bird can start using the object.
func (u *UtilityProvider) HasRoom() bool {
	return u.Capacity <= 0 || u.Occupants < u.Capacity
}

// Consume draws amount from the resource pool and reports how much was
// actually taken. Objects with infinite supply always grant the full
// amount.
func (u *UtilityProvider) Consume(amount float32) float32 {
	if u.Resource < 0 {
		return amount
	}
	if u.Resource < amount {
		amount = u.Resource
	}
	u.Resource -= amount
	if u.Resource <= 0 {
		u.Resource = 0
		u.Depleted = true
	}
	return amount
}

// Shelter marks an object as storm cover. Quality scales the shelter
// offer and weighs into emergency flock shelter choice.
type Shelter struct {
	Quality float32
}

// CacheStore is a bird's memory of food it has hidden, capped at a few
// sites. Corvids and chickadees use it; everyone else leaves it empty.
type CacheStore struct {
	Sites []CacheSite
}

// CacheSite is one hidden food stash.
type CacheSite struct {
	X, Y   float32
	Amount float32
}

// MaxCacheSites bounds per-bird cache memory.
const MaxCacheSites = 8

// Add records a stash, evicting the smallest when full.
func (c *CacheStore) Add(s CacheSite) {
	if len(c.Sites) < MaxCacheSites {
		c.Sites = append(c.Sites, s)
		return
	}
	min := 0
	for i := 1; i < len(c.Sites); i++ {
		if c.Sites[i].Amount < c.Sites[min].Amount {
			min = i
		}
	}
	if s.Amount > c.Sites[min].Amount {
		c.Sites[min] = s
	}
}

// Nearest returns the index of the closest stash to (x, y), or -1.
func (c *CacheStore) Nearest(x, y float32) int {
	best := -1
	var bestD float32
	for i := range c.Sites {
		dx := c.Sites[i].X - x
		dy := c.Sites[i].Y - y
		d := dx*dx + dy*dy
		if best < 0 || d < bestD {
			best, bestD = i, d
		}
	}
	return best
}
