package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifier_Skips(t *testing.T) {
	c := DefaultClassifier(ColEstablishmentName)

	assert.True(t, c.Skips("ID"))
	assert.True(t, c.Skips("Fecha de carga"))
	assert.True(t, c.Skips("Identificador"))
	assert.True(t, c.Skips(ColEstablishmentName))
	assert.False(t, c.Skips("Superficie"))
}

func TestClassifier_Classify(t *testing.T) {
	c := DefaultClassifier()

	t.Run("numeric above ratio", func(t *testing.T) {
		rows := make([]Record, 10)
		for i := range rows {
			rows[i] = Record{"Hectareas": fmt.Sprintf("%d.5", i)}
		}
		rows[9] = Record{"Hectareas": "sin dato"}
		p := c.Classify(NewTable([]string{"Hectareas"}, rows), "Hectareas")

		assert.Equal(t, KindNumeric, p.Kind)
		assert.InDelta(t, 0.9, p.NumericRatio, 1e-9)
	})

	t.Run("ratio exactly at threshold is not numeric", func(t *testing.T) {
		rows := make([]Record, 10)
		for i := range rows {
			rows[i] = Record{"Cabezas": fmt.Sprint(i)}
		}
		rows[8] = Record{}
		rows[9] = Record{}
		p := c.Classify(NewTable([]string{"Cabezas"}, rows), "Cabezas")

		assert.Equal(t, KindCategorical, p.Kind, "all present values numeric with few distinct")
		assert.InDelta(t, 0.8, p.NumericRatio, 1e-9)
		assert.False(t, p.TextTyped)
	})

	t.Run("text column", func(t *testing.T) {
		table := NewTable([]string{"Provincia"}, []Record{
			{"Provincia": "Neuquén"}, {"Provincia": "Río Negro"}, {"Provincia": "Neuquén"},
		})
		p := c.Classify(table, "Provincia")

		assert.Equal(t, KindCategorical, p.Kind)
		assert.True(t, p.TextTyped)
		assert.Equal(t, 2, p.Distinct)
	})

	t.Run("sparse numbers with many distinct values", func(t *testing.T) {
		rows := make([]Record, 200)
		for i := range 60 {
			rows[i] = Record{"Monto": fmt.Sprint(i * 7)}
		}
		for i := 60; i < 200; i++ {
			rows[i] = Record{}
		}
		p := c.Classify(NewTable([]string{"Monto"}, rows), "Monto")

		assert.Equal(t, KindUnclassified, p.Kind)
	})

	t.Run("all missing", func(t *testing.T) {
		p := c.Classify(NewTable([]string{"Vacía"}, []Record{{}, {}}), "Vacía")
		assert.Equal(t, KindUnclassified, p.Kind)
	})

	t.Run("skipped", func(t *testing.T) {
		p := c.Classify(NewTable([]string{"FECHA"}, []Record{{"FECHA": "1"}}), "FECHA")
		assert.Equal(t, KindSkipped, p.Kind)
	})
}

func TestClassifier_ClassifyAll(t *testing.T) {
	table := NewTable([]string{"ID", "Provincia"}, []Record{{"ID": "1", "Provincia": "Chubut"}})

	profiles := DefaultClassifier().ClassifyAll(table)

	assert.Equal(t, []ColumnKind{KindSkipped, KindCategorical}, []ColumnKind{profiles[0].Kind, profiles[1].Kind})
}

func TestExplode(t *testing.T) {
	got := Explode([]string{"Ciervo, Jabalí, Puma"}, MultiValueSeparator)
	assert.Equal(t, []string{"Ciervo", "Jabalí", "Puma"}, got)

	got = Explode([]string{"ciervo colorado,  jabalí", "", "nan", "Antílope, , Guanaco"}, MultiValueSeparator)
	assert.Equal(t, []string{"Ciervo Colorado", "Jabalí", "Antílope"}, got)
}

func TestParseNumber(t *testing.T) {
	v, ok := ParseNumber(" 12.5 ")
	assert.True(t, ok)
	assert.Equal(t, 12.5, v)

	for _, in := range []string{"", "abc", "NaN", "Inf", "1,5"} {
		_, ok := ParseNumber(in)
		assert.False(t, ok, in)
	}
}
