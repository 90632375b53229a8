package pricing

import (
	"slices"

	"github.com/amirphl/Kusanagi/models"
)

// Catalog is an in-memory snapshot of the reference data a solve reads
type Catalog struct {
	Groups        map[uint]*models.ChannelGroup
	Channels      map[uint]*models.Channel
	FreightTables map[uint]*models.FreightTable
	FeeTables     map[uint]*models.FeeTable
}

// NewCatalog indexes the given slices by ID
func NewCatalog(groups []*models.ChannelGroup, channels []*models.Channel, freightTables []*models.FreightTable, feeTables []*models.FeeTable) *Catalog {
	c := &Catalog{
		Groups:        make(map[uint]*models.ChannelGroup, len(groups)),
		Channels:      make(map[uint]*models.Channel, len(channels)),
		FreightTables: make(map[uint]*models.FreightTable, len(freightTables)),
		FeeTables:     make(map[uint]*models.FeeTable, len(feeTables)),
	}
	for _, g := range groups {
		c.Groups[g.ID] = g
	}
	for _, ch := range channels {
		c.Channels[ch.ID] = ch
	}
	for _, t := range freightTables {
		c.FreightTables[t.ID] = t
	}
	for _, t := range feeTables {
		c.FeeTables[t.ID] = t
	}
	return c
}

func (c *Catalog) Channel(id uint) *models.Channel {
	return c.Channels[id]
}

func (c *Catalog) Group(id uint) *models.ChannelGroup {
	return c.Groups[id]
}

// GroupOf returns the group of a channel, preferring the catalog entry
func (c *Catalog) GroupOf(channel *models.Channel) *models.ChannelGroup {
	if g := c.Groups[channel.GroupID]; g != nil {
		return g
	}
	return channel.Group
}

func (c *Catalog) FreightTableOf(channel *models.Channel) *models.FreightTable {
	if channel.FreightTableID == nil {
		return nil
	}
	return c.FreightTables[*channel.FreightTableID]
}

func (c *Catalog) FeeTableOf(channel *models.Channel) *models.FeeTable {
	if channel.FeeTableID == nil {
		return nil
	}
	return c.FeeTables[*channel.FeeTableID]
}

// BorrowingChannels lists channels whose group borrows cost from referenceID,
// excluding the reference channel itself
func (c *Catalog) BorrowingChannels(referenceID uint) []*models.Channel {
	var out []*models.Channel
	for _, ch := range c.Channels {
		if ch.ID == referenceID {
			continue
		}
		g := c.GroupOf(ch)
		if g != nil && g.BorrowsCost() && *g.ReferenceChannelID == referenceID {
			out = append(out, ch)
		}
	}
	return out
}

// IsCostReference reports whether any group borrows cost from the channel
func (c *Catalog) IsCostReference(channelID uint) bool {
	for _, g := range c.Groups {
		if g.BorrowsCost() && *g.ReferenceChannelID == channelID {
			return true
		}
	}
	return false
}

// WithGroup returns a copy of the catalog where group replaces or adds its entry
func (c *Catalog) WithGroup(group *models.ChannelGroup) *Catalog {
	out := c.clone()
	out.Groups[group.ID] = group
	return out
}

// WithChannel returns a copy of the catalog where channel replaces or adds its entry
func (c *Catalog) WithChannel(channel *models.Channel) *Catalog {
	out := c.clone()
	out.Channels[channel.ID] = channel
	return out
}

func (c *Catalog) clone() *Catalog {
	out := &Catalog{
		Groups:        make(map[uint]*models.ChannelGroup, len(c.Groups)),
		Channels:      make(map[uint]*models.Channel, len(c.Channels)),
		FreightTables: c.FreightTables,
		FeeTables:     c.FeeTables,
	}
	for id, g := range c.Groups {
		out.Groups[id] = g
	}
	for id, ch := range c.Channels {
		out.Channels[id] = ch
	}
	return out
}

// CheckReferences walks the cost reference chain of every channel and reports
// the first cycle found
func (c *Catalog) CheckReferences() error {
	resolver := NewEngine(c).Costs()
	for _, id := range sortedChannelIDs(c.Channels) {
		if _, err := resolver.ReferenceChain(c.Channels[id]); err != nil {
			return err
		}
	}
	return nil
}

func sortedChannelIDs(channels map[uint]*models.Channel) []uint {
	ids := make([]uint, 0, len(channels))
	for id := range channels {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
