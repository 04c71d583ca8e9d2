package drafts

import "testing"

func BenchmarkProduceSingleWrite(b *testing.B) {
	p := NewProducer(WithAutoFreeze(false))
	base := map[string]any{
		"profile": map[string]any{"name": "ada", "logins": 41},
		"tags":    []any{"admin", "ops"},
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := p.Produce(base, func(d *Draft) (any, error) {
			profile, err := d.Get("profile")
			if err != nil {
				return nil, err
			}
			return nil, profile.(*Draft).Set("logins", i)
		}); err != nil {
			b.Fatalf("unexpected error: %v", err)
		}
	}
}

func BenchmarkProduceWithPatches(b *testing.B) {
	p := NewProducer(WithAutoFreeze(false))
	base := []any{1, 2, 3, 4}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, _, err := p.ProduceWithPatches(base, func(d *Draft) (any, error) {
			return nil, d.Set(0, i)
		}); err != nil {
			b.Fatalf("unexpected error: %v", err)
		}
	}
}
