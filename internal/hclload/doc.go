// Package hclload reads pipeline definitions written in HCL and turns them
// into a *pipeline.Graph.
//
// A definition is one file or a directory of .hcl files. Exactly one
// pipeline block must exist across all files; every other block may live
// in any file and in any order:
//
//	pipeline "preprocessing" {
//	  version = "v0.1.0"
//	}
//
//	type "BamCsi" {
//	  base        = "Bam"
//	  secondaries = [".csi"]
//	}
//
//	input "bams" {
//	  type = array(BamBai)
//	}
//
//	tool "SortSam" {
//	  command = ["gatk", "SortSam"]
//	  input "bam" {
//	    type   = Bam
//	    prefix = "-I"
//	  }
//	  output "out" {
//	    type = BamBai
//	  }
//	}
//
//	step "sort" {
//	  tool    = "SortSam"
//	  in      = { bam = input.bams }
//	  scatter = ["bam"]
//	}
//
//	output "sorted" {
//	  source = step.sort.out
//	}
//
// Binding values of the form input.NAME and step.ID.PORT are references;
// any other expression is evaluated without variables and bound as a
// literal.
package hclload
