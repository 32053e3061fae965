package style

func builtinBorders() []Border {
	return []Border{
		{Key: "none", Line: LineNone},

		// Romantic
		{Key: "softPink", Width: 18, Line: LineDouble, Color: "#f9a8d4", Glow: shade("#f9a8d4", 0.6, 25)},
		{Key: "heartBeat", Width: 12, Line: LineDashed, Color: "#ec4899", Glow: shade("#ffc0cb", 1, 30), Animation: "pulse"},
		{Key: "lovePoison", Width: 10, Line: LineDouble, Color: "#db2777", Glow: shade("#ff1493", 1, 40), InnerGlow: shade("#ffc0cb", 1, 20)},
		{Key: "yandere", Width: 14, Line: LineSolid, Color: "#dc2626", Glow: shade("#ff0000", 1, 35), InnerGlow: shade("#8b0000", 1, 25)},
		{Key: "bloodyHeart", Width: 16, Line: LineDotted, Color: "#b91c1c", Glow: shade("#cc0000", 1, 40), InnerGlow: shade("#440000", 1, 30)},
		{Key: "pastelLove", Width: 20, Line: LineDouble, Color: "#fbcfe8", Glow: shade("#ffb6c1", 0.7, 20)},
		{Key: "chocolate", Width: 15, Line: LineSolid, Color: "#4a2c0b", Glow: shade("#8b4513", 1, 25)},
		{Key: "roseThorns", Width: 18, Line: LineDashed, Color: "#991b1b", InnerGlow: shade("#8b0000", 1, 15)},

		// Angry
		{Key: "rage", Width: 12, Line: LineSolid, Color: "#b91c1c", Glow: shade("#ff0000", 1, 40), InnerGlow: shade("#b22222", 1, 30)},
		{Key: "bloodDrip", Width: 14, Line: LineDotted, Color: "#7f1d1d", Glow: shade("#8b0000", 1, 45)},
		{Key: "fire", Width: 10, Line: LineDouble, Color: "#ea580c", Glow: shade("#ffa500", 1, 50), InnerGlow: shade("#ff8c00", 1, 25)},
		{Key: "lava", Width: 16, Line: LineSolid, Color: "#ff4500", Glow: shade("#ff8c00", 1, 60), InnerGlow: shade("#b22222", 1, 35)},
		{Key: "glitchRed", Width: 5, Line: LineSolid, Color: "#dc2626", Glow: shade("#ff0000", 1, 30)},
		{Key: "glitchAngry", Width: 6, Line: LineSolid, Color: "#ff0044", Glow: shade("#00ffff", 1, 8), InnerGlow: shade("#ff0000", 1, 25)},
		{Key: "toxic", Width: 12, Line: LineDouble, Color: "#84cc16", Glow: shade("#00ff00", 1, 40), InnerGlow: shade("#00ff00", 1, 25)},

		// Pastel
		{Key: "bubblegum", Width: 20, Line: LineDouble, Color: "#f9a8d4", Glow: shade("#ffb6c1", 1, 30)},
		{Key: "cottonCandy", Width: 18, Line: LineDashed, Color: "#ff99cc", Glow: shade("#ffccff", 1, 35)},
		{Key: "mintLove", Width: 16, Line: LineSolid, Color: "#98ff98", Glow: shade("#90ee90", 1, 30)},
		{Key: "lavenderDream", Width: 20, Line: LineDouble, Color: "#d8b4fe", Glow: shade("#e6e6fa", 1, 35)},
		{Key: "sakura", Width: 22, Line: LineDotted, Color: "#fbcfe8", Glow: shade("#ffc0cb", 1, 40)},
		{Key: "peachFuzz", Width: 18, Line: LineSolid, Color: "#ffdab9", Glow: shade("#ffe4c4", 1, 30)},

		// Retro
		{Key: "vaporPink", Width: 8, Line: LineDouble, Color: "#ff69b4", Glow: shade("#ff1493", 1, 30)},
		{Key: "vaporBlue", Width: 8, Line: LineDouble, Color: "#00b7eb", Glow: shade("#00ffff", 1, 40), InnerGlow: shade("#00b7eb", 1, 20)},
		{Key: "chrome", Width: 14, Line: LineDouble, Color: "#d1d5db", Glow: shade("#c0c0c0", 1, 25), InnerGlow: shade("#ffffff", 1, 15)},
		{Key: "cyberGrunge", Width: 6, Line: LineDashed, Color: "#00ff9f", Glow: shade("#00ff9f", 1, 30), InnerGlow: shade("#000000", 1, 20)},
		{Key: "oldTV", Width: 20, Line: LineSolid, Color: "#222222", Glow: shade("#444444", 1, 40), InnerGlow: shade("#111111", 1, 30)},

		// Gothic
		{Key: "blackRose", Width: 18, Line: LineSolid, Color: "#000000", Glow: shade("#000000", 1, 30), InnerGlow: shade("#111111", 1, 25)},
		{Key: "purpleVeins", Width: 16, Line: LineDotted, Color: "#581c87", Glow: shade("#4b0082", 1, 40), InnerGlow: shade("#301934", 1, 30)},
		{Key: "midnightLove", Width: 20, Line: LineDouble, Color: "#1e1b4b", Glow: shade("#4b0082", 1, 45)},
		{Key: "brokenHeart", Width: 14, Line: LineDashed, Color: "#450a0a", InnerGlow: shade("#8b0000", 1, 25)},
		{Key: "cemetery", Width: 22, Line: LineSolid, Color: "#111827", Glow: shade("#111111", 1, 40), InnerGlow: shade("#000000", 1, 30)},

		// Experimental
		{Key: "rainbowPulse", Width: 10, Line: LineSolid, Gradient: []string{"#ff0000", "#ffff00", "#00ff00", "#0000ff", "#800080", "#ffc0cb"}, Glow: shade("#ffffff", 1, 50), Animation: "pulse"},
		{Key: "melting", Width: 18, Line: LineDotted, Color: "#ec4899", Glow: shade("#ffc0cb", 1, 40), Animation: "wiggle"},
		{Key: "holographic", Width: 12, Line: LineSolid, Gradient: []string{"#22d3ee", "#a855f7", "#ec4899"}, Glow: shade("#a78bfa", 1, 50)},
		{Key: "barbedWire", Width: 20, Line: LineDashed, Color: "#1f2937", InnerGlow: shade("#111111", 1, 20)},
		{Key: "knifeCuts", Width: 16, Line: LineDotted, Color: "#7f1d1d", InnerGlow: shade("#440000", 1, 30)},
		{Key: "candyCrush", Width: 14, Line: LineDouble, Color: "#ff69b4", Glow: shade("#ff1493", 1, 35), InnerGlow: shade("#ffb6c1", 1, 25)},
	}
}

func builtinFonts() []Font {
	return []Font{
		{Key: "serif", Family: "Georgia, 'Times New Roman', serif"},
		{Key: "sans", Family: "'Helvetica Neue', Arial, sans-serif"},
		{Key: "mono", Family: "'Courier New', monospace"},
		{Key: "handwriting", Family: "'Dancing Script', 'Brush Script MT', cursive"},
		{Key: "display", Family: "'Bebas Neue', Impact, sans-serif", Weight: 700},
		{Key: "rounded", Family: "Nunito, 'Arial Rounded MT Bold', sans-serif"},
		{Key: "typewriter", Family: "'Special Elite', 'Courier New', monospace"},
	}
}

func builtinMasks() []Mask {
	masks := []Mask{{Key: "none"}}
	for _, key := range []string{"circle", "heart", "star", "square", "diamond", "hexagon"} {
		path, _ := Shape(key)
		masks = append(masks, Mask{Key: key, Path: path})
	}
	return masks
}
