package models

// Region selects the tax split for the counterparty's state.
type Region string

const (
	RegionSouth Region = "South"
	RegionNorth Region = "North"
)

func (r Region) Valid() bool {
	return r == RegionSouth || r == RegionNorth
}

// UnitType is the catalog unit a line item is sold in.
type UnitType string

const (
	UnitTypeUnit   UnitType = "U"
	UnitTypeNumber UnitType = "N"
	UnitTypeBox    UnitType = "Box"
)

func (u UnitType) Valid() bool {
	return u == UnitTypeUnit || u == UnitTypeNumber || u == UnitTypeBox
}
