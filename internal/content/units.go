package content

type TileType string

const (
	TileStar        TileType = "star"
	TileDumbbell    TileType = "dumbbell"
	TileBook        TileType = "book"
	TileTrophy      TileType = "trophy"
	TileFastForward TileType = "fast-forward"
	TileTreasure    TileType = "treasure"
)

// Tile is one stop on a unit path. Treasure tiles have no description.
type Tile struct {
	Type        TileType
	Description string
}

// Unit is a numbered section of the course.
type Unit struct {
	Number      int
	Description string
	Tiles       []Tile
}

var units = []Unit{
	{
		Number:      1,
		Description: "Variables and literals",
		Tiles: []Tile{
			{Type: TileBook, Description: "Declaring integers"},
			{Type: TileBook, Description: "Strings"},
			{Type: TileBook, Description: "Floats"},
			{Type: TileBook, Description: "Printing"},
			{Type: TileStar, Description: "Unit review"},
		},
	},
	{
		Number:      2,
		Description: "Control flow",
		Tiles: []Tile{
			{Type: TileBook, Description: "Conditions"},
			{Type: TileBook, Description: "Comparisons"},
			{Type: TileBook, Description: "Loops"},
			{Type: TileBook, Description: "Nested loops"},
			{Type: TileDumbbell, Description: "Practice"},
			{Type: TileBook, Description: "Break and continue"},
			{Type: TileBook, Description: "Switch"},
			{Type: TileTreasure},
			{Type: TileTrophy, Description: "Unit 2 review"},
		},
	},
	{
		Number:      3,
		Description: "Objects",
		Tiles: []Tile{
			{Type: TileFastForward, Description: "Jump here"},
			{Type: TileBook, Description: "Classes"},
			{Type: TileBook, Description: "Constructors"},
			{Type: TileDumbbell, Description: "Practice"},
			{Type: TileBook, Description: "Inheritance"},
			{Type: TileTreasure},
			{Type: TileTrophy, Description: "Unit 3 review"},
		},
	},
}

// Units returns the course units in order.
func Units() []Unit {
	out := make([]Unit, len(units))
	for i, u := range units {
		out[i] = u
		out[i].Tiles = append([]Tile(nil), u.Tiles...)
	}
	return out
}

// UnitByNumber looks a unit up by its 1-based number.
func UnitByNumber(n int) (Unit, bool) {
	for _, u := range units {
		if u.Number == n {
			return u, true
		}
	}
	return Unit{}, false
}
