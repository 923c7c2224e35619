package taxonomy

// definitions is the reference methodology's subtype table. Order matters:
// it is the tie-break order when two subtypes score the same.
var definitions = []Subtype{
	// Spring
	{"french_spring", Spring, Warm, Light, LowMediumContrast},
	{"porcelain_spring", Spring, WarmNeutral, Light, MediumContrast},

	// Summer
	{"ballerina_summer", Summer, Cool, Light, LowContrast},
	{"cameo_summer", Summer, Cool, Light, MediumContrast},
	{"chinoiserie_summer", Summer, Cool, LightMedium, LowMediumContrast},
	{"degas_summer", Summer, Cool, LightMedium, LowContrast},
	{"summer_rose", Summer, Cool, LightMedium, MediumContrast},
	{"sunset_summer", Summer, CoolNeutral, Medium, MediumContrast},
	{"water_lily_summer", Summer, Cool, Light, LowContrast},

	// Autumn
	{"auburn_autumn", Autumn, Warm, Medium, MediumContrast},
	{"burnished_autumn", Autumn, Warm, MediumDeep, MediumHighContrast},
	{"cloisonne_autumn", Autumn, Warm, Medium, HighContrast},
	{"grecian_autumn", Autumn, WarmNeutral, Medium, MediumContrast},
	{"mellow_autumn", Autumn, Warm, Medium, LowContrast},
	{"multi_colored_autumn", Autumn, Warm, Medium, HighContrast},
	{"oriental_autumn", Autumn, Warm, MediumDeep, MediumContrast},
	{"renaissance_autumn", Autumn, Warm, Medium, MediumHighContrast},
	{"sunlit_autumn", Autumn, Warm, LightMedium, MediumContrast},
	{"tapestry_autumn", Autumn, Warm, MediumDeep, MediumContrast},
	{"topaz_autumn", Autumn, Warm, Medium, MediumHighContrast},

	// Winter
	{"burnished_winter", Winter, Cool, MediumDeep, HighContrast},
	{"cameo_winter", Winter, Cool, LightMedium, HighContrast},
	{"crystal_winter", Winter, Cool, Light, HighContrast},
	{"exotic_winter", Winter, CoolNeutral, Deep, HighContrast},
	{"gemstone_winter", Winter, Cool, MediumDeep, HighContrast},
	{"mediterranean_winter", Winter, CoolNeutral, MediumDeep, MediumHighContrast},
	{"ornamental_winter", Winter, Cool, Medium, HighContrast},
	{"silk_road_winter", Winter, CoolNeutral, MediumDeep, MediumHighContrast},
	{"tapestry_winter", Winter, Cool, MediumDeep, MediumHighContrast},
	{"winter_rose", Winter, Cool, LightMedium, HighContrast},
}
