package recommend

// Item ids that drive recommendations without price or unlock data.

// killproofIDs are consumables raid groups ask players to show.
var killproofIDs = idSet(
	77302, // Legendary Insight
	88485, // Legendary Divination
	81743, // Unstable Cosmic Essence
)

// raidCofferIDs are containers that count as killproof while unopened.
var raidCofferIDs = idSet(
	78989, 79186, 78993, 80252, 80264, 80269, 80557, 80623,
	80330, 80387, 81490, 81462, 81225, 81267, 88543, 88866,
	88945, 88701, 91270, 91246, 91175, 91838, 91764, 91781,
)

// LegendaryCategory groups the legendary crafting materials.
type LegendaryCategory string

// LegendaryCategory values.
const (
	LegendaryCore      LegendaryCategory = "core"
	LegendaryT6Fine    LegendaryCategory = "t6_fine"
	LegendaryT5Fine    LegendaryCategory = "t5_fine"
	LegendaryLodestone LegendaryCategory = "lodestone"
	LegendaryCoreMat   LegendaryCategory = "core_mat"
	LegendaryAscended  LegendaryCategory = "ascended"
	LegendaryT6Common  LegendaryCategory = "t6_common"
	LegendaryGift      LegendaryCategory = "gift"
	LegendaryPrecursor LegendaryCategory = "precursor"
)

// legendaryGroups is checked in order; an id listed twice takes the first group.
var legendaryGroups = []struct {
	category LegendaryCategory
	message  string
	ids      map[int]bool
}{
	{LegendaryCore, "Core legendary material, keep it", idSet(19976, 19721, 19675, 19925, 19952, 68063)},
	{LegendaryT6Fine, "T6 fine material for Gift of Magic and Gift of Might", idSet(24295, 24351, 24358, 24277, 24357, 24289, 24300, 24283)},
	{LegendaryT5Fine, "T5 fine material, promotable to T6", idSet(24294, 24350, 24341, 24276, 24356, 24288, 24299, 24282)},
	{LegendaryLodestone, "Lodestone for legendary weapon gifts", idSet(24305, 24310, 24304, 24303, 24306, 24302, 24309, 24307, 46738)},
	{LegendaryCoreMat, "Core, promotable to a lodestone", idSet(24298, 24314, 24327, 24326, 24329, 24325, 24328, 24330, 46736)},
	{LegendaryAscended, "Time-gated ascended material", idSet(46742, 46745, 46740, 46744, 46747, 46748, 46749, 46746)},
	{LegendaryT6Common, "T6 common material for ascended and legendary crafting", idSet(19737, 19701, 19745, 19712, 19748, 19729, 19746)},
	{LegendaryGift, "Gift component for legendary crafting", idSet(19678, 19677, 71581, 80332, 97509)},
	{LegendaryPrecursor, "Precursor weapon, needed to craft its legendary", idSet(
		29169, 29185, 29180, 29181, 29167, 29168, 29166, 29184, 29183, 29175,
		29182, 29177, 29170, 29176, 29178, 29179, 29171, 30699, 30698, 30697,
	)},
}

// unidentifiedGear maps unidentified gear ids to their advice.
var unidentifiedGear = map[int]string{
	79048: "Unidentified gear (blue): open it or sell it",
	79049: "Unidentified gear (green): open it first, it may roll rare or exotic",
	79050: "Unidentified gear (yellow): always open it first, it may roll exotic",
}

// converterMaterials are daily converter inputs worth holding on to.
var converterMaterials = map[int]string{
	68642: "Bloodstone Dust feeds Mawdrey II and Herta, keep it for daily conversions",
	68646: "Dragonite Ore feeds Princess and Sentient Aberration, keep it for daily conversions",
	68645: "Empyreal Fragment feeds Star of Gratitude and Sentient Anomaly, keep it for daily conversions",
}

// deceptiveItems look like vendor trash but are not.
var deceptiveItems = map[int]string{
	79230: "Mists essence is a fractal crafting material",
	79469: "Mists essence is a valuable fractal material",
	79899: "Mists essence is a valuable fractal material",
	20796: "Valuable material, do not sell it to a vendor",
	75919: "Valuable material, do not sell it to a vendor",
	94020: "Valuable material, do not sell it to a vendor",
	20820: "Spirit Shard is a legendary crafting currency",
	79280: "Valuable material, do not sell it to a vendor",
	86069: "Valuable material, do not sell it to a vendor",
	19925: "Obsidian Shard is a legendary crafting material",
}

// passiveConsumables are consumable detail types left to the player.
var passiveConsumables = map[string]bool{
	"Booze":   true,
	"Food":    true,
	"Utility": true,
	"Generic": true,
}

func idSet(ids ...int) map[int]bool {
	m := make(map[int]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

func legendaryCategory(id int) (LegendaryCategory, string, bool) {
	for _, g := range legendaryGroups {
		if g.ids[id] {
			return g.category, g.message, true
		}
	}
	return "", "", false
}
