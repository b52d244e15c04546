package engine

// elements maps element symbols to standard atomic weights. Covers the
// subset that shows up in organic and common inorganic fragments; anything
// outside fails chemistry validation and mass computation.
var elements = map[string]float64{
	"H":  1.008,
	"He": 4.0026,
	"Li": 6.94,
	"Be": 9.0122,
	"B":  10.81,
	"C":  12.011,
	"N":  14.007,
	"O":  15.999,
	"F":  18.998,
	"Ne": 20.180,
	"Na": 22.990,
	"Mg": 24.305,
	"Al": 26.982,
	"Si": 28.085,
	"P":  30.974,
	"S":  32.06,
	"Cl": 35.45,
	"Ar": 39.95,
	"K":  39.098,
	"Ca": 40.078,
	"Ti": 47.867,
	"Cr": 51.996,
	"Mn": 54.938,
	"Fe": 55.845,
	"Co": 58.933,
	"Ni": 58.693,
	"Cu": 63.546,
	"Zn": 65.38,
	"Ga": 69.723,
	"Ge": 72.630,
	"As": 74.922,
	"Se": 78.971,
	"Br": 79.904,
	"Kr": 83.798,
	"Ag": 107.87,
	"Sn": 118.71,
	"I":  126.90,
	"Pt": 195.08,
	"Au": 196.97,
	"Hg": 200.59,
	"Pb": 207.2,
}

// organicSubset lists elements SMILES writes without brackets.
var organicSubset = map[string]bool{
	"B":  true,
	"C":  true,
	"N":  true,
	"O":  true,
	"P":  true,
	"S":  true,
	"F":  true,
	"Cl": true,
	"Br": true,
	"I":  true,
}
