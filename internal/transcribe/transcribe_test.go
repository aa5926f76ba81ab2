package transcribe

import "testing"

func TestParseProvider(t *testing.T) {
	tests := []struct {
		name    string
		want    Provider
		wantErr bool
	}{
		{"", ProviderFasterWhisper, false},
		{"faster-whisper", ProviderFasterWhisper, false},
		{" OpenAI ", ProviderOpenAI, false},
		{"gemini", ProviderGemini, false},
		{"whisper.cpp", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseProvider(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseProvider(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseProvider(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestOptionsLanguageAndTask(t *testing.T) {
	tests := []struct {
		opts      Options
		detect    bool
		translate bool
	}{
		{Options{Language: "", Task: "transcribe"}, true, false},
		{Options{Language: "auto", Task: "translate"}, true, true},
		{Options{Language: "AUTO", Task: "Translate"}, true, true},
		{Options{Language: "zh", Task: "transcribe"}, false, false},
	}

	for _, tt := range tests {
		if got := tt.opts.detectLanguage(); got != tt.detect {
			t.Errorf("%+v detectLanguage() = %v, want %v", tt.opts, got, tt.detect)
		}
		if got := tt.opts.translate(); got != tt.translate {
			t.Errorf("%+v translate() = %v, want %v", tt.opts, got, tt.translate)
		}
	}
}

func TestFactoryUnknownProvider(t *testing.T) {
	if _, err := Factory(t.Context(), Provider("nope"), "", Options{}); err == nil {
		t.Error("expected error for unknown provider")
	}

	tr, err := Factory(t.Context(), ProviderFasterWhisper, "", Options{Model: "base"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := tr.(*FasterWhisperTranscriber); !ok {
		t.Errorf("got %T, want *FasterWhisperTranscriber", tr)
	}
}
