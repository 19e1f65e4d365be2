package types

import "github.com/zclconf/go-cty/cty"

// Built-in kind names.
const (
	NameString    = "String"
	NameInt       = "Int"
	NameFloat     = "Float"
	NameBoolean   = "Boolean"
	NameFile      = "File"
	NameDirectory = "Directory"
	NameFilename  = "Filename"
	NameStdout    = "Stdout"
	NameStderr    = "Stderr"

	NameFastq            = "Fastq"
	NameFastqGz          = "FastqGz"
	NameFastqGzPair      = "FastqGzPair"
	NameFasta            = "Fasta"
	NameFastaDict        = "FastaDict"
	NameFastaWithDict    = "FastaWithDict"
	NameFastaWithIndexes = "FastaWithIndexes"
	NameSam              = "Sam"
	NameBam              = "Bam"
	NameBamBai           = "BamBai"
	NameVcf              = "Vcf"
	NameVcfTabix         = "VcfTabix"
	NameVcfIdx           = "VcfIdx"
	NameBed              = "Bed"
	NameTextFile         = "TextFile"
)

type builtin struct {
	name string
	s    Structure
}

// Order matters: a base must precede the kinds that refine it.
var builtins = []builtin{
	{NameString, Structure{Value: cty.String, Doc: "A string"}},
	{NameInt, Structure{Value: cty.Number, Doc: "An integer"}},
	{NameFloat, Structure{Value: cty.Number, Doc: "A floating point number"}},
	{NameBoolean, Structure{Value: cty.Bool, Doc: "A boolean"}},
	{NameFile, Structure{File: true, Doc: "A local file"}},
	{NameDirectory, Structure{Value: cty.String, Doc: "A local directory"}},
	{NameFilename, Structure{Value: cty.String, Doc: "A file name generated by the step itself"}},
	{NameStdout, Structure{Base: NameFile, Doc: "Standard output of an external step"}},
	{NameStderr, Structure{Base: NameFile, Doc: "Standard error of an external step"}},

	{NameTextFile, Structure{Base: NameFile, Doc: "A plain text file"}},
	{NameFastq, Structure{Base: NameFile, Doc: "FASTQ reads"}},
	{NameFastqGz, Structure{Base: NameFile, Doc: "Gzipped FASTQ reads"}},
	{NameFastqGzPair, Structure{Base: NameFile, Doc: "Paired-end gzipped FASTQ reads"}},
	{NameFasta, Structure{Base: NameFile, Doc: "A FASTA reference"}},
	{NameFastaDict, Structure{Base: NameFasta, Secondaries: []string{"^.dict"}, Doc: "FASTA with a sequence dictionary"}},
	{NameFastaWithDict, Structure{Base: NameFastaDict, Secondaries: []string{".fai", "^.dict"}, Doc: "FASTA with a .fai index and a sequence dictionary"}},
	{NameFastaWithIndexes, Structure{
		Base:        NameFastaWithDict,
		Secondaries: []string{".fai", ".amb", ".ann", ".bwt", ".pac", ".sa", "^.dict"},
		Doc:         "FASTA with samtools, bwa and dictionary indexes",
	}},
	{NameSam, Structure{Base: NameFile, Doc: "A SAM alignment"}},
	{NameBam, Structure{Base: NameFile, Doc: "A BAM alignment"}},
	{NameBamBai, Structure{Base: NameBam, Secondaries: []string{".bai"}, Doc: "A BAM with its .bai index"}},
	{NameVcf, Structure{Base: NameFile, Doc: "Variant calls"}},
	{NameVcfTabix, Structure{Base: NameVcf, Secondaries: []string{".tbi"}, Doc: "Compressed VCF with a tabix index"}},
	{NameVcfIdx, Structure{Base: NameVcf, Secondaries: []string{".idx"}, Doc: "VCF with an .idx index"}},
	{NameBed, Structure{Base: NameFile, Doc: "BED intervals"}},
}

func declareBuiltins(r *Registry) {
	for _, b := range builtins {
		r.MustDeclare(b.name, b.s)
	}
}
