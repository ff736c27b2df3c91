package physics

import (
	"fmt"

	"github.com/google/uuid"
)

// Kind separates scoring fruit from penalty bombs.
type Kind int

const (
	KindFruit Kind = iota
	KindBomb
)

func (k Kind) String() string {
	switch k {
	case KindFruit:
		return "fruit"
	case KindBomb:
		return "bomb"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Fruit is the fruit subtype. Bombs carry an empty Fruit.
type Fruit string

const (
	FruitApple      Fruit = "apple"
	FruitOrange     Fruit = "orange"
	FruitWatermelon Fruit = "watermelon"
	FruitLemon      Fruit = "lemon"
	FruitStrawberry Fruit = "strawberry"
)

// Fruits is the fixed set the spawner picks from.
var Fruits = []Fruit{FruitApple, FruitOrange, FruitWatermelon, FruitLemon, FruitStrawberry}

var fruitColors = map[Fruit]string{
	FruitApple:      "#e53935",
	FruitOrange:     "#fb8c00",
	FruitWatermelon: "#43a047",
	FruitLemon:      "#fdd835",
	FruitStrawberry: "#d81b60",
}

const bombColor = "#424242"

// Color returns the effect colour hint for the fruit.
func (f Fruit) Color() string {
	if c, ok := fruitColors[f]; ok {
		return c
	}
	return "#ffffff"
}

// Object is a falling fruit or bomb.
type Object struct {
	ID              uuid.UUID `json:"id"`
	Kind            Kind      `json:"kind"`
	Fruit           Fruit     `json:"fruit,omitempty"`
	Position        Vec3      `json:"position"`
	Velocity        Vec3      `json:"velocity"`
	AngularVelocity Vec3      `json:"angularVelocity"`
	Rotation        Vec3      `json:"rotation"`
	Radius          float64   `json:"radius"`
	Gravity         float64   `json:"gravity"`
	Cut             bool      `json:"cut"`
}

// step advances the object by dt seconds.
func (o *Object) step(dt float64) {
	o.Velocity.Y -= o.Gravity * dt
	o.Position = o.Position.Add(o.Velocity.Scale(dt))
	o.Rotation = o.Rotation.Add(o.AngularVelocity.Scale(dt))
}

// Explosion is a cut event handed to the visual layer.
type Explosion struct {
	ObjectID      uuid.UUID `json:"objectId"`
	Position      Vec3      `json:"position"`
	Kind          Kind      `json:"kind"`
	Fruit         Fruit     `json:"fruit,omitempty"`
	ParticleCount int       `json:"particleCount"`
	Color         string    `json:"color"`
}
