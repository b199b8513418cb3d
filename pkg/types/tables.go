package types

// Standard table names for Cabinet.GetTable.
const (
	TableLocations  = "locations"
	TableContainers = "containers"
)

// StandardTableNames lists all standard table names for enumeration.
var StandardTableNames = []string{
	TableLocations,
	TableContainers,
}
