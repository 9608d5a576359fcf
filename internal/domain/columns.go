package domain

// Header literals are matched exactly, including trailing spaces and accents,
// because the source spreadsheets are exported with them.

// Hunting permits ("Permisos de Caza").
const (
	ColACM          = "ACM-(Área de caza mayor)"
	ColGuide        = "Responsable Guía de Caza"
	ColCityProvince = "Ciudad, Estado o Provincia"
	ColCategory     = "Categoria "
	ColIssueDate    = "Fecha "
	ColCountry      = "País"
)

// Transfer guides ("Guías de Traslado").
const (
	ColTransferACM   = "ACM-(Área de caza mayor)"
	ColAreaType      = "Tipo de Área de Caza Mayor"
	ColExoticSpecies = "Especies exóticas posibles de ser cazada legalmente. (Tilde lo que corresponda). "
)

// Establishment registrations ("Inscripción de Establecimientos").
const (
	ColBreederRegistered = "Su establecimiento está inscripto y habilitado como criadero de fauna silvestre"
	ColDeerOnProperty    = "Dentro de su campo los ciervos: (marque lo que corresponde)."
	ColDeerFiveYears     = "En los últimos cinco años, el número de ciervos en su campo"
	ColBoarThreeYears    = "En los últimos tres años, la población de jabalí europeo:"
	ColPumaThreeYears    = "En los últimos tres años, la población de pumas"
	ColGuanacosLive      = "En su establecimiento viven poblaciones de guanacos?"
	ColBigGameSpecies    = "Marque el casillero de la especies para las que solicita la práctica de caza. mayor.  Estas especies son exclusivamente para caza en establecimientos debidamente inscriptos como Criaderos de Fauna Silvestre y habilitados como Áreas de Caza Mayor."
	ColDeerLandShare     = "De las superficies total del establecimiento, qué porcentaje estima Ud. Que es utilizado por los ciervos"
	ColEstablishmentName = "Nombre del establecimiento"
	ColACMLocation       = "Ubicación del ACM"
	ColCoordinates       = "Coordenada Geográfica ( punto de referencia centro del campo) Latitud y Longitud."
	ColGuanacosThreeYrs  = "En los últimos 3 años, la población de guanacos"
	ColCompletedBy       = "Planilla completada por..."
)

// Derived columns added by the date enricher.
const (
	ColMonthNumber = "Mes_Numero"
	ColYear        = "Anio"
	ColMonthName   = "Mes_Nombre"
	ColMonthYear   = "Mes_Anio_Display"
	ColDayOfMonth  = "Dia_Del_Mes"
	ColWeekOfMonth = "Semana_Del_Mes"
	ColWeekLabel   = "Semana_Etiqueta"
	ColMonthWeek   = "Mes_Semana_Label"
)

// Derived columns added by the text normalizer.
const (
	ColGuideNormalized    = "Guia_Normalizado"
	ColLocationNormalized = "Ciudad_Estado_Provincia_Normalizada"
	ColCountryTitle       = "Pais_Normalizado"
)
