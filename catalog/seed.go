package catalog

// SeedProducts returns the storefront's initial inventory
func SeedProducts() []Product {
	return []Product{
		{
			ID:          "p1",
			Name:        "HP LaserJet Pro M404dn",
			Description: "Impressora laser monocromática ideal para escritórios médios. Rápida e eficiente.",
			Price:       249.99,
			Category:    CategoryPrinters,
			Image:       "https://picsum.photos/400/300?random=1",
			Rating:      4.8,
			Reviews:     124,
		},
		{
			ID:          "p2",
			Name:        "Epson EcoTank ET-2850",
			Description: "Impressora multifunções a cores com tanques de tinta recarregáveis. Poupe até 90% em tinta.",
			Price:       299.00,
			Category:    CategoryPrinters,
			Image:       "https://picsum.photos/400/300?random=2",
			Rating:      4.6,
			Reviews:     89,
		},
		{
			ID:          "p3",
			Name:        "Brother HL-L2350DW",
			Description: "Impressora laser mono compacta com Wi-Fi e impressão duplex automática.",
			Price:       139.50,
			Category:    CategoryPrinters,
			Image:       "https://picsum.photos/400/300?random=3",
			Rating:      4.7,
			Reviews:     210,
		},
		{
			ID:          "p4",
			Name:        "Pack Tinteiros HP 305XL Preto/Tricolor",
			Description: "Pack de tinteiros originais de alto rendimento para DeskJet e Envy.",
			Price:       44.90,
			Category:    CategoryInkToner,
			Image:       "https://picsum.photos/400/300?random=4",
			Rating:      4.5,
			Reviews:     340,
		},
		{
			ID:          "p5",
			Name:        "Toner Brother TN-2420 Preto",
			Description: "Toner de alta capacidade (3000 páginas) para série HL-L2300.",
			Price:       78.20,
			Category:    CategoryInkToner,
			Image:       "https://picsum.photos/400/300?random=5",
			Rating:      4.9,
			Reviews:     56,
		},
		{
			ID:          "p6",
			Name:        "Papel Navigator Universal A4 80g",
			Description: "Caixa com 5 resmas (2500 folhas). O papel mais vendido em Portugal.",
			Price:       32.50,
			Category:    CategoryPaper,
			Image:       "https://picsum.photos/400/300?random=6",
			Rating:      5.0,
			Reviews:     500,
		},
		{
			ID:          "p7",
			Name:        "Kit de Manutenção Kyocera MK-1150",
			Description: "Kit completo para manutenção preventiva de impressoras ECOSYS.",
			Price:       112.00,
			Category:    CategoryParts,
			Image:       "https://picsum.photos/400/300?random=7",
			Rating:      4.2,
			Reviews:     12,
		},
		{
			ID:          "p8",
			Name:        "Canon PIXMA TS5350i",
			Description: "Multifunções 3-em-1 elegante e conectada, ideal para uso doméstico criativo.",
			Price:       89.99,
			Category:    CategoryPrinters,
			Image:       "https://picsum.photos/400/300?random=8",
			Rating:      4.4,
			Reviews:     45,
		},
	}
}
