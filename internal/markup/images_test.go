package markup

import "testing"

func TestImages_Extraction(t *testing.T) {
	text := `<p>Sear the steak.</p><img src="/api/media/recipes/1/step.webp" alt="seared"><p>Rest it.</p><img src="https://cdn.example.com/rest.jpg"/>`

	images := Images(text)

	if len(images) != 2 {
		t.Fatalf("Expected 2 images, got %d", len(images))
	}
	if images[0].Src != "/api/media/recipes/1/step.webp" {
		t.Errorf("Unexpected first src: %s", images[0].Src)
	}
	if images[0].Alt != "seared" {
		t.Errorf("Unexpected first alt: %s", images[0].Alt)
	}
	if images[1].Src != "https://cdn.example.com/rest.jpg" {
		t.Errorf("Unexpected second src: %s", images[1].Src)
	}
}

func TestHasImage(t *testing.T) {
	tests := []struct {
		desc string
		text string
		want bool
	}{
		{"empty text", "", false},
		{"plain text", "Preheat the oven to 200C.", false},
		{"markdown only", "Whisk **well** until smooth.", false},
		{"html without image", "<p>Fold in the flour.</p>", false},
		{"inline image", "Fold gently <img src=\"fold.png\"> and serve.", true},
		{"self-closing image", "<img src='a.png'/>", true},
		{"uppercase tag", "<IMG SRC=\"a.png\">", true},
		{"nested image", "<div><p><span><img src=\"x\"></span></p></div>", true},
		{"similar tag name", "<imgx src=\"x\">", false},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if got := HasImage(tt.text); got != tt.want {
				t.Errorf("HasImage(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}
