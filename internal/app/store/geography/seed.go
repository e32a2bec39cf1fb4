package geographystore

import (
	"context"
)

type seedProvince struct {
	name      string
	lat, lon  float64
	districts []string
}

// mozambique lists the provinces (with the coordinates of their capitals)
// and districts loaded by Seed.
var mozambique = []seedProvince{
	{"Maputo Cidade", -25.9692, 32.5732, []string{
		"KaMpfumo", "Nlhamankulu", "KaMaxaquene", "KaMavota",
		"KaMubukwana", "KaTembe", "KaNyaka",
	}},
	{"Maputo Província", -25.9622, 32.4589, []string{
		"Cidade da Matola", "Boane", "Magude", "Manhiça",
		"Marracuene", "Matutuíne", "Moamba", "Namaacha",
	}},
	{"Gaza", -25.0519, 33.6442, []string{
		"Xai-Xai", "Bilene", "Chibuto", "Chicualacuala", "Chigubo",
		"Chókwè", "Guijá", "Mabalane", "Manjacaze", "Massangena",
		"Massingir", "Limpopo",
	}},
	{"Inhambane", -23.8650, 35.3833, []string{
		"Cidade de Inhambane", "Maxixe", "Funhalouro", "Govuro",
		"Homoíne", "Inharrime", "Inhassoro", "Jangamo", "Mabote",
		"Massinga", "Morrumbene", "Panda", "Vilankulo", "Zavala",
	}},
	{"Sofala", -19.8436, 34.8389, []string{
		"Beira", "Búzi", "Caia", "Chemba", "Cheringoma", "Chibabava",
		"Dondo", "Gorongosa", "Machanga", "Maringué", "Marromeu",
		"Muanza", "Nhamatanda",
	}},
	{"Manica", -19.1164, 33.4833, []string{
		"Chimoio", "Bárue", "Gondola", "Guro", "Macate", "Machaze",
		"Macossa", "Manica", "Mossurize", "Sussundenga", "Tambara",
		"Vanduzi",
	}},
	{"Tete", -16.1564, 33.5867, []string{
		"Cidade de Tete", "Angónia", "Cahora-Bassa", "Changara",
		"Chifunde", "Chiuta", "Dôa", "Macanga", "Magoé", "Marara",
		"Marávia", "Moatize", "Mutarara", "Tsangano", "Zumbo",
	}},
	{"Zambézia", -17.8786, 36.8883, []string{
		"Quelimane", "Alto Molócuè", "Chinde", "Derre", "Gilé",
		"Gurué", "Ile", "Inhassunge", "Luabo", "Lugela", "Maganja da Costa",
		"Milange", "Mocuba", "Mocubela", "Molumbo", "Mopeia",
		"Morrumbala", "Mulevala", "Namacurra", "Namarroi", "Nicoadala",
		"Pebane",
	}},
	{"Nampula", -15.1165, 39.2666, []string{
		"Cidade de Nampula", "Angoche", "Eráti", "Ilha de Moçambique",
		"Lalaua", "Larde", "Liúpo", "Malema", "Meconta", "Mecubúri",
		"Memba", "Mogincual", "Mogovolas", "Moma", "Monapo",
		"Mossuril", "Muecate", "Murrupula", "Nacala-a-Velha", "Nacala-Porto",
		"Nacarôa", "Rapale", "Ribáuè",
	}},
	{"Niassa", -13.3128, 35.2406, []string{
		"Lichinga", "Chimbonila", "Cuamba", "Lago", "Majune",
		"Mandimba", "Marrupa", "Maúa", "Mavago", "Mecanhelas",
		"Mecula", "Metarica", "Muembe", "N'gauma", "Sanga",
	}},
	{"Cabo Delgado", -12.9740, 40.5178, []string{
		"Pemba", "Ancuabe", "Balama", "Chiúre", "Ibo", "Macomia",
		"Mecúfi", "Meluco", "Metuge", "Mocímboa da Praia", "Montepuez",
		"Mueda", "Muidumbe", "Namuno", "Nangade", "Palma", "Quissanga",
	}},
}

// SeedResult counts what Seed created.
type SeedResult struct {
	Provinces int
	Districts int
}

// Seed loads the provinces and districts of Mozambique. Existing entries are
// kept, so running it again creates nothing.
func (s *Store) Seed(ctx context.Context) (SeedResult, error) {
	var res SeedResult
	for _, sp := range mozambique {
		lat, lon := sp.lat, sp.lon
		p, created, err := s.GetOrCreateProvince(ctx, sp.name, &lat, &lon)
		if err != nil {
			return res, err
		}
		if created {
			res.Provinces++
		}
		for _, dn := range sp.districts {
			_, created, err := s.GetOrCreateDistrict(ctx, p.ID, dn)
			if err != nil {
				return res, err
			}
			if created {
				res.Districts++
			}
		}
	}
	return res, nil
}

// SeedSize returns how many provinces and districts Seed would create on an
// empty database.
func SeedSize() SeedResult {
	res := SeedResult{Provinces: len(mozambique)}
	for _, sp := range mozambique {
		res.Districts += len(sp.districts)
	}
	return res
}
