package style

const texturesURL = "https://www.transparenttextures.com/patterns/"

func builtinPapers() []Paper {
	return []Paper{
		// Plain
		{Key: "classic", Background: "#ffffff"},
		{Key: "pureWhite", Background: "#ffffff", Vignette: shade("#000000", 0.04, 40)},
		{Key: "offWhite", Background: "#fdfdfd", Vignette: shade("#000000", 0.06, 8)},

		// Ruled
		{Key: "notebook", Background: "#f9f9f9", Pattern: PatternLines, PatternColor: "#e0f0ff", PatternSpacing: 24, Vignette: shade("#000000", 0.05, 30)},
		{Key: "notebookWide", Background: "#fafafa", Pattern: PatternLines, PatternColor: "#d0e8ff", PatternSpacing: 32, Vignette: shade("#add8e6", 0.4, 6)},
		{Key: "graphPaper", Background: "#ffffff", Pattern: PatternGrid, PatternColor: "#e0e0e0", PatternSpacing: 20, Vignette: shade("#000000", 0.03, 25)},
		{Key: "dottedPaper", Background: "#ffffff", Pattern: PatternDots, PatternColor: "#dddddd", PatternSpacing: 22, Vignette: shade("#000000", 0.04, 20)},

		// Vintage
		{Key: "vintage", Background: "#f4e4bc"},
		{Key: "ancient", Background: "#f5e8c7", Texture: texturesURL + "cream-paper.png", Vignette: shade("#8b4513", 0.25, 80)},
		{Key: "parchment", Background: "#f0e6d2", Texture: texturesURL + "old-wall.png", Vignette: shade("#a0522d", 0.3, 90)},
		{Key: "oldLetter", Background: "#fff8e1", Texture: texturesURL + "cream-paper.png", Vignette: shade("#d2b48c", 0.4, 60)},
		{Key: "yellowedPaper", Background: "#fffacd", Vignette: shade("#daa520", 0.35, 70)},
		{Key: "sepiaOld", Background: "#f4ecd8", Sepia: 0.25, Vignette: shade("#8b4513", 0.28, 85)},

		// Burnt and damaged
		{Key: "burn", Background: "#f3e5ab", Texture: texturesURL + "cream-paper.png", Vignette: shade("#8b0000", 0.25, 100)},
		{Key: "burntEdges", Background: "#e8d5b0", Vignette: shade("#8b4513", 0.45, 120)},
		{Key: "tornPaper", Background: "#f5f0e1", Vignette: shade("#000000", 0.15, 60)},
		{Key: "crumpled", Background: "#f8f1e9", Texture: texturesURL + "crissxcross.png", Vignette: shade("#000000", 0.18, 45)},

		// Dark
		{Key: "dark", Background: "#0f0f0f", Vignette: shade("#000000", 0.8, 50)},
		{Key: "carbon", Background: "#111111", Texture: texturesURL + "carbon-fibre.png", Vignette: shade("#000000", 0.7, 40)},
		{Key: "charcoal", Background: "#1a1a1a", Texture: texturesURL + "dark-mosaic.png", Vignette: shade("#000000", 0.9, 60)},
		{Key: "midnight", Background: "#0a0015", Vignette: shade("#4b0082", 0.4, 90)},

		// Themed
		{Key: "love", Background: "#fff5f7", Texture: texturesURL + "soft-wallpaper.png", Vignette: shade("#ffb6c1", 0.45, 50)},
		{Key: "pastelPink", Background: "#fff0f5", Vignette: shade("#ff69b4", 0.25, 40)},
		{Key: "sakura", Background: "#fffaf0", Texture: texturesURL + "white-paperboard.png", Vignette: shade("#ffb6c1", 0.4, 55)},
		{Key: "mintDream", Background: "#f0fff0", Vignette: shade("#90ee90", 0.3, 45)},
		{Key: "lavender", Background: "#f8f0ff", Vignette: shade("#e6e6fa", 0.45, 50)},
		{Key: "galaxy", Background: "#000000", Texture: texturesURL + "stardust.png", Vignette: shade("#6441a5", 0.4, 120)},
		{Key: "retroSepia", Background: "#f4e8d1", Sepia: 0.4, Vignette: shade("#a0522d", 0.35, 70)},

		// Grain
		{Key: "subtleGrain", Background: "#f5f5f5", Texture: texturesURL + "subtle-white-feathers.png", Vignette: shade("#000000", 0.06, 30)},
		{Key: "paperGrain", Background: "#faf8f5", Texture: texturesURL + "off-white.png", Vignette: shade("#000000", 0.08, 35)},
		{Key: "kraft", Background: "#e8d5b7", Texture: texturesURL + "cream-paper.png", Vignette: shade("#8b4513", 0.3, 50)},
		{Key: "newsprint", Background: "#f9f5ec", Texture: texturesURL + "noisy.png", Vignette: shade("#000000", 0.1, 40)},
	}
}
